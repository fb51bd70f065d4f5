package tui

type state int

const (
	loadingState state = iota
	anchorsState
	followState
)
