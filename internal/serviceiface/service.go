package serviceiface

// Service is one managed unit in the start sequence: the app manager starts
// them in configured order and stops them in reverse.
type Service interface {
	Name() string
	Start() error
	Stop() error
}
