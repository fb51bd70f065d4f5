package engine

import "github.com/seamui/seamui/anchor"

// Command is an instruction for the engine loop.
type Command interface {
	command()
}

// Follow looks a room up and starts tracking it, live or not.
type Follow struct {
	Platform anchor.Platform
	RoomID   string
}

// Play hands the first source to the player.
type Play struct {
	Sources []string
}

// Remove stops tracking an anchor.
type Remove struct {
	Key anchor.Key
}

// Refresh starts a refresh pass without waiting for the next tick.
type Refresh struct{}

// Exit stops the loop. No state changes or events follow it.
type Exit struct{}

func (Follow) command()  {}
func (Play) command()    {}
func (Remove) command()  {}
func (Refresh) command() {}
func (Exit) command()    {}
