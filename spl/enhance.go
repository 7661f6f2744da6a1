package spl

//Stateful components take part in checkpoints, for snapshot mode
type Stateful interface {
	//Snapshot returns a consistent copy of the component state
	Snapshot() ([]byte, error)

	//Restore will restore component state after open
	Restore(snapshot []byte) error
}

//Resettable components can drop all state and start over, used when a restore fails
type Resettable interface {
	ResetToInitialState() error
}
