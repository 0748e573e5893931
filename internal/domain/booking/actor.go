package booking

// Actor is an authenticated caller, resolved before reaching the service layer.
type Actor struct {
	ID    int64
	Admin bool
}
