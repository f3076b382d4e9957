package dycore

// Kernel is the raw solver boundary. Both calls block until done and return
// 0 on success. Any nonzero status leaves the instance unusable.
type Kernel interface {
	Init(args *InitArgs) int
	Run(args *RunArgs) int
}

// StatusDescriber is implemented by kernels that can explain their codes
type StatusDescriber interface {
	StatusText(code int) string
}

// Freer is implemented by kernels holding resources outside the Go heap
type Freer interface {
	Free()
}
