package customerror

// CustomError pairs the message shown to the user with the internal one
// that goes to the log.
type CustomError struct {
	userError     string
	internalError string
	cause         error
}

func New(userError, internalError string) CustomError {
	return CustomError{
		userError:     userError,
		internalError: internalError,
	}
}

// Wrap keeps err as the cause and uses its text as the internal message.
func Wrap(userError string, err error) CustomError {
	return CustomError{userError: userError, internalError: err.Error(), cause: err}
}

func (c CustomError) Error() string {
	return c.internalError
}

func (c CustomError) User() string {
	if c.userError == "" {
		return c.internalError
	}
	return c.userError
}

func (c CustomError) Unwrap() error {
	return c.cause
}
