package app

// Status is the coarse outcome of a run.
type Status int

const (
	StatusOK Status = iota
	StatusError
	StatusConfigError
	StatusAuthRequired
	StatusAuthFailed
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusConfigError:
		return "config_error"
	case StatusAuthRequired:
		return "auth_required"
	case StatusAuthFailed:
		return "auth_failed"
	default:
		return "error"
	}
}

// ExitCode maps a status to the process exit code:
// 0 ok, 1 runtime error, 2 configuration, 3 authentication.
func (s Status) ExitCode() int {
	switch s {
	case StatusOK:
		return 0
	case StatusConfigError:
		return 2
	case StatusAuthRequired, StatusAuthFailed:
		return 3
	default:
		return 1
	}
}
