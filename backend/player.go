package main

type IPlayer interface {
	IsHuman() bool
	// Close releases whatever the player holds once it leaves the game.
	Close()
}
