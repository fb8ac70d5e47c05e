package viewmodels

type Login struct {
	BaseViewModel

	Email string
}
