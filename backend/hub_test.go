package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHubPublishesOnlyToListeners(t *testing.T) {
	hub := NewHub()
	hub.PublishStatus(StatusResponse{})
	hub.PublishHistory(nil)
	hub.PublishReset(StatusResponse{})
	assert.Len(t, hub.broadcastStatus, 0)
	assert.Len(t, hub.broadcastHistory, 0)
	assert.Len(t, hub.broadcastReset, 0)

	client := &Client{send: make(chan []byte, 4)}
	hub.Register(client)
	assert.True(t, hub.HasClients())
	hub.PublishStatus(StatusResponse{BoardSize: 9})
	hub.PublishHistory([]historyEntryDTO{{X: 1, Y: 2}})
	hub.PublishReset(StatusResponse{})
	assert.Len(t, hub.broadcastStatus, 1)
	assert.Len(t, hub.broadcastHistory, 1)
	assert.Len(t, hub.broadcastReset, 1)

	hub.Unregister(client)
	assert.False(t, hub.HasClients())
	_, open := <-client.send
	assert.False(t, open)
}
