package graph

// Schema defines the initial state and how a node output is merged into it.
type Schema[S any] interface {
	Init() S
	Update(current, update S) (S, error)
}

// FuncSchema adapts a merge function. The zero value of S is the initial state.
type FuncSchema[S any] struct {
	InitFunc  func() S
	MergeFunc func(current, update S) (S, error)
}

func (f FuncSchema[S]) Init() S {
	if f.InitFunc != nil {
		return f.InitFunc()
	}
	var zero S
	return zero
}

func (f FuncSchema[S]) Update(current, update S) (S, error) {
	if f.MergeFunc == nil {
		return update, nil
	}
	return f.MergeFunc(current, update)
}

// NewSchema builds a schema whose merge cannot fail.
func NewSchema[S any](merge func(current, update S) S) FuncSchema[S] {
	return FuncSchema[S]{
		MergeFunc: func(current, update S) (S, error) {
			return merge(current, update), nil
		},
	}
}
