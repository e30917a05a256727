package types

// Registry stores declarations between runs. Callers attach to a backend,
// read and write contracts and types by name, and detach when done.
type Registry interface {
	// Attach connects the registry to the backend described by config.
	// Returns ErrAlreadyAttached if called while already attached.
	Attach(config Config) error

	// Detach releases backend resources. Idempotent.
	Detach() error

	// PutContract creates or replaces the contract with the same name and
	// returns its record ID.
	PutContract(c Contract) (string, error)

	// GetContract returns ErrNotFound when no contract has the name.
	GetContract(name string) (Contract, error)

	DeleteContract(name string) error

	// ListContracts returns all contracts sorted by name.
	ListContracts() ([]Contract, error)

	// PutType creates or replaces the type with the same name and returns
	// its record ID.
	PutType(t ConcreteType) (string, error)

	GetType(name string) (ConcreteType, error)

	DeleteType(name string) error

	ListTypes() ([]ConcreteType, error)

	// PutDeclarations creates or replaces every contract and type in d as
	// one unit: either all of them are stored or none is.
	PutDeclarations(d Declarations) error

	// Declarations returns everything stored as one declaration set.
	Declarations() (Declarations, error)
}
