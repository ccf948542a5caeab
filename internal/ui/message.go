package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/cineai/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgBoardMounted MsgKind = iota
	MsgRoomMounted
	MsgNotice
	MsgChanged
	MsgActionDone
	MsgInputDone
)

// boardMountedMsg is the constructor for [MsgBoardMounted]
func boardMountedMsg(err error) Msg {
	return Msg{kind: MsgBoardMounted, data: err}
}

// roomMountedMsg is the constructor for [MsgRoomMounted]. room identifies which mount finished.
func roomMountedMsg(room *tasks.BlendRoom, err error) Msg {
	return Msg{
		kind: MsgRoomMounted,
		data: struct {
			room *tasks.BlendRoom
			err  error
		}{room, err},
	}
}

// noticeMsg is the constructor for [MsgNotice]
func noticeMsg(n tasks.Notice) Msg {
	return Msg{kind: MsgNotice, data: n}
}

// changedMsg is the constructor for [MsgChanged]
func changedMsg() Msg {
	return Msg{kind: MsgChanged}
}

// actionDoneMsg is the constructor for [MsgActionDone]
func actionDoneMsg(err error) Msg {
	return Msg{kind: MsgActionDone, data: err}
}

// inputDoneMsg is the constructor for [MsgInputDone]. kind names the input whose action finished.
func inputDoneMsg(kind inputKind, err error) Msg {
	return Msg{
		kind: MsgInputDone,
		data: struct {
			input inputKind
			err   error
		}{kind, err},
	}
}
