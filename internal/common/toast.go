package common

// ToastLevel is the severity of a transient user-facing message.
type ToastLevel string

const (
	ToastInfo    ToastLevel = "info"
	ToastSuccess ToastLevel = "success"
	ToastError   ToastLevel = "error"
)

// Toast is a transient snackbar message the client shows once.
type Toast struct {
	Level   ToastLevel `json:"level"`
	Message string     `json:"message"`
}

func ErrorToast(msg string) Toast { return Toast{Level: ToastError, Message: msg} }

func InfoToast(msg string) Toast { return Toast{Level: ToastInfo, Message: msg} }
