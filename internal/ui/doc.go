// Package ui implements the interactive Blend screens using bubbletea's Elm architecture.
//
// The TUI has four views:
//  1. [BoardView] : the user's blends with member count, match score and a loading marker
//  2. [RoomView] : one blend's members, their preference tags and the shared recommendations
//  3. [InputView] : a text prompt for create, join, add history and invite
//  4. [ConfirmView] : y/n before a blend is deleted
//
// The screens' behaviour lives in tasks.BlendBoard and tasks.BlendRoom. The [Model] mounts one of them at a time
// and listens on two channels: notices (shown in the status line, and followed when they navigate) and change
// signals (which trigger a fresh snapshot).
//
// Keyboard navigation uses vim-style bindings with contextual help displayed via charmbracelet/bubbles/help.
package ui
