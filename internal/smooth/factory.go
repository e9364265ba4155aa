package smooth

// Factory is a thin, explicit replacement for the original source's
// process-global SmootherFactory singleton (§9): callers construct one
// per Engine and pass it down, rather than reaching for a shared instance.
type Factory struct{}

// NewFactory returns a Factory. It carries no state; New is a package
// function because the mapping from algorithm name to concrete type never
// varies at runtime.
func NewFactory() *Factory { return &Factory{} }

func (f *Factory) Build(algorithm string) Smoother { return New(algorithm) }
