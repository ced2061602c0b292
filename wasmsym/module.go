package wasmsym

import (
	"context"
	"math"
	"sort"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/stl/errors"
	"github.com/wippyai/stl/registry"
	"github.com/wippyai/stl/symbol"
)

// ExitTrap is the exit code of a wasm entry point that trapped, failed to
// instantiate or was cancelled.
const ExitTrap symbol.ExitCode = -1

// Config holds loader settings.
type Config struct {
	// WIT, when non-empty, limits registration to the functions it declares.
	WIT string

	// MemoryLimitPages caps each instance's memory in 64KB pages. 0 keeps
	// the wazero default.
	MemoryLimitPages uint32
}

// Module is a compiled guest whose exports are registered as entry points.
type Module struct {
	reg      *registry.Registry
	runtime  wazero.Runtime
	compiled wazero.CompiledModule
	names    []string
}

// Load compiles wasm and registers its qualifying exports in the
// registry's symbol table.
func Load(ctx context.Context, reg *registry.Registry, wasm []byte, cfg Config) (*Module, error) {
	rcfg := wazero.NewRuntimeConfig().WithCloseOnContextDone(true)
	if cfg.MemoryLimitPages > 0 {
		rcfg = rcfg.WithMemoryLimitPages(cfg.MemoryLimitPages)
	}
	rt := wazero.NewRuntimeWithConfig(ctx, rcfg)

	m, err := load(ctx, rt, reg, wasm, cfg.WIT)
	if err != nil {
		_ = rt.Close(ctx)
		return nil, err
	}
	return m, nil
}

func load(ctx context.Context, rt wazero.Runtime, reg *registry.Registry, wasm []byte, witText string) (*Module, error) {
	funcs := hostFuncs(reg)
	if _, err := instantiateHost(ctx, rt, funcs); err != nil {
		return nil, errors.Load(errors.PhaseWasm, "instantiate host module", err)
	}

	compiled, err := rt.CompileModule(ctx, wasm)
	if err != nil {
		return nil, errors.Load(errors.PhaseWasm, "compile", err)
	}
	if err := checkImports(compiled, funcs); err != nil {
		return nil, err
	}

	m := &Module{
		reg:      reg,
		runtime:  rt,
		compiled: compiled,
	}

	exports := compiled.ExportedFunctions()
	var selected []string
	if witText != "" {
		selected, err = selectByWIT(exports, witText)
		if err != nil {
			return nil, err
		}
	} else {
		for name, def := range exports {
			if qualifies(def) {
				selected = append(selected, name)
			} else {
				reg.Log().Debugf("skipping export <%s>: not an entry point signature", name)
			}
		}
	}
	sort.Strings(selected)

	for _, name := range selected {
		if err := reg.Symbols().Register(name, m.entry(name, exports[name])); err != nil {
			return nil, err
		}
		m.names = append(m.names, name)
	}
	return m, nil
}

// Names returns the registered export names in order.
func (m *Module) Names() []string {
	return m.names
}

// Close releases the runtime and every live instance. Registered entry
// points fail with ExitTrap afterwards.
func (m *Module) Close(ctx context.Context) error {
	return m.runtime.Close(ctx)
}

// qualifies reports whether def has an entry point signature.
func qualifies(def api.FunctionDefinition) bool {
	return upToOneI32(def.ParamTypes()) && upToOneI32(def.ResultTypes())
}

func upToOneI32(types []api.ValueType) bool {
	return len(types) == 0 || len(types) == 1 && types[0] == api.ValueTypeI32
}

func selectByWIT(exports map[string]api.FunctionDefinition, witText string) ([]string, error) {
	sigs, err := parseWitFunctions(witText)
	if err != nil {
		return nil, err
	}

	selected := make([]string, 0, len(sigs))
	for name, sig := range sigs {
		def, ok := exports[name]
		if !ok {
			return nil, errors.New(errors.PhaseWasm, errors.KindSymbolNotFound).
				Name(name).
				Detail("declared in WIT but not exported").
				Build()
		}
		if err := sig.check(name); err != nil {
			return nil, err
		}
		if len(sig.params) != len(def.ParamTypes()) || len(sig.results) != len(def.ResultTypes()) || !qualifies(def) {
			return nil, errors.New(errors.PhaseWasm, errors.KindSignatureMismatch).
				Name(name).
				Detail("WIT declaration does not match the core signature").
				Build()
		}
		selected = append(selected, name)
	}
	return selected, nil
}

// checkImports fails unless every import is a host function this package
// provides with the same signature.
func checkImports(compiled wazero.CompiledModule, funcs []hostFunc) error {
	provided := make(map[string]hostFunc, len(funcs))
	for _, f := range funcs {
		provided[f.name] = f
	}

	for _, def := range compiled.ImportedFunctions() {
		module, name, _ := def.Import()
		f, ok := provided[name]
		if module != HostModule || !ok {
			return errors.New(errors.PhaseWasm, errors.KindLoad).
				Name(module + "." + name).
				Detail("unresolved import").
				Build()
		}
		if !sameTypes(def.ParamTypes(), f.params) || !sameTypes(def.ResultTypes(), f.results) {
			return errors.New(errors.PhaseWasm, errors.KindSignatureMismatch).
				Name(module + "." + name).
				Detail("import signature does not match the host function").
				Build()
		}
	}
	return nil
}

func sameTypes(a, b []api.ValueType) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// entry wraps one export as a thread entry point.
func (m *Module) entry(name string, def api.FunctionDefinition) symbol.Func {
	takesArg := len(def.ParamTypes()) == 1
	returns := len(def.ResultTypes()) == 1
	log := m.reg.Log()

	return func(ctx context.Context, arg any) symbol.ExitCode {
		var params []uint64
		if takesArg {
			v, ok := argI32(arg)
			if !ok {
				log.Logf("wasm entry <%s>: argument %v (%T) is not a 32-bit integer", name, arg, arg)
				return ExitTrap
			}
			params = []uint64{api.EncodeI32(v)}
		}

		inst, err := m.runtime.InstantiateModule(ctx, m.compiled,
			wazero.NewModuleConfig().WithName("").WithStartFunctions("_initialize"))
		if err != nil {
			log.Logf("wasm entry <%s>: instantiate: %v", name, err)
			return ExitTrap
		}
		defer inst.Close(context.Background())

		results, err := inst.ExportedFunction(name).Call(ctx, params...)
		if err != nil {
			if ctx.Err() != nil {
				log.Debugf("wasm entry <%s> cancelled", name)
			} else {
				log.Logf("wasm entry <%s> trapped: %v", name, err)
			}
			return ExitTrap
		}

		if returns {
			return symbol.ExitCode(api.DecodeI32(results[0]))
		}
		return 0
	}
}

// argI32 converts a thread argument to the guest's i32 parameter. A nil
// argument is 0.
func argI32(arg any) (int32, bool) {
	var v int64
	switch a := arg.(type) {
	case nil:
		return 0, true
	case int32:
		return a, true
	case symbol.ExitCode:
		return int32(a), true
	case registry.Handle:
		return int32(a), true
	case int:
		v = int64(a)
	case int64:
		v = a
	case uint32:
		return int32(a), true
	default:
		return 0, false
	}
	if v < math.MinInt32 || v > math.MaxInt32 {
		return 0, false
	}
	return int32(v), true
}
