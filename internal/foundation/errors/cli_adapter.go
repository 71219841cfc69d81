package errors

// Exit codes reported by the CLI per error category. Configuration problems and
// transport failures get distinct codes so wrapper scripts can tell them apart.
const (
	ExitOK       = 0
	ExitGeneric  = 1
	ExitConfig   = 2
	ExitAuth     = 3
	ExitNetwork  = 4
	ExitContent  = 5
	ExitResource = 6
)

// ExitCode maps an error to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	switch CategoryOf(err) {
	case CategoryConfig, CategoryValidation:
		return ExitConfig
	case CategoryAuth:
		return ExitAuth
	case CategoryNetwork, CategoryGit, CategoryNotFound:
		return ExitNetwork
	case CategoryContent:
		return ExitContent
	case CategoryResource:
		return ExitResource
	default:
		return ExitGeneric
	}
}
