package tasks

import (
	"errors"
	"fmt"
	"strings"
)

// Level grades a [Notice].
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelInfo:
		return "info"
	case LevelSuccess:
		return "success"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return ""
	}
}

// Notice is a transient message for the user, optionally asking the front end to move to another view.
type Notice struct {
	Level    Level
	Title    string
	Message  string
	Navigate string // route to show next, empty to stay
}

func (n Notice) String() string {
	if n.Message == "" {
		return n.Title
	}
	return n.Title + ": " + n.Message
}

// Routes a [Notice] can navigate to.
const (
	RouteLogin  = "/login"
	RouteBlends = "/blend"
)

// BlendRoute is the detail view of one blend.
func BlendRoute(code string) string {
	return RouteBlends + "/" + code
}

// RouteCode extracts the blend code from a detail route.
func RouteCode(route string) (string, bool) {
	code, ok := strings.CutPrefix(route, RouteBlends+"/")
	return code, ok && code != ""
}

// User-facing messages.
const (
	MsgLoginRequired      = "Please login to access blend functionality."
	MsgLoginRequiredBlend = "Please login to access this blend."
	MsgNameRequired       = "Please enter a blend name."
	MsgCodeRequired       = "Please enter a blend code."
	MsgUserRequired       = "Please enter a username to invite."
	MsgTitlesRequired     = "Please enter at least one movie title."
	MsgCreateFailed       = "Failed to create blend"
	MsgJoinFailed         = "Failed to join blend"
	MsgCodeNotFound       = "Blend code not found"
	MsgBlendNotFound      = "Blend not found"
	MsgLoadFailed         = "Failed to load blend"
	MsgDeleteFailed       = "Could not delete blend"
	MsgInviteFailed       = "Failed to send invite"
	MsgHistoryFailed      = "Failed to add movie history"
	MsgCopied             = "Blend code copied to clipboard"
	MsgCopyFailed         = "Could not copy to clipboard"
	DeletePrompt          = "Delete this blend permanently?"
)

func errorNotice(title, msg string) Notice {
	return Notice{Level: LevelError, Title: title, Message: msg}
}

func successNotice(title, msg string) Notice {
	return Notice{Level: LevelSuccess, Title: title, Message: msg}
}

// Failure is an error that has already been shown to the user as a notice.
//
// Error returns the user-facing message; Unwrap exposes both the failure kind and the cause.
type Failure struct {
	Title   string
	Message string
	Kind    error
	Err     error
}

func (f *Failure) Error() string { return f.Message }

func (f *Failure) Unwrap() []error {
	errs := make([]error, 0, 2)
	if f.Kind != nil {
		errs = append(errs, f.Kind)
	}
	if f.Err != nil {
		errs = append(errs, f.Err)
	}
	return errs
}

// Detail renders the message with its cause for logs and CLI output.
func (f *Failure) Detail() string {
	if f.Err == nil {
		return f.Message
	}
	return fmt.Sprintf("%s (%v)", f.Message, f.Err)
}

// AsFailure reports whether err carries a [Failure].
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	ok := errors.As(err, &f)
	return f, ok
}
