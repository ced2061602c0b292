package wasmsym

import (
	"context"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/stl/errors"
	"github.com/wippyai/stl/registry"
)

// HostModule is the import module name guests use to reach the registry.
const HostModule = "stl"

var (
	i32 = api.ValueTypeI32
	f64 = api.ValueTypeF64
)

type hostFunc struct {
	fn      api.GoModuleFunc
	name    string
	params  []api.ValueType
	results []api.ValueType
}

// hostFuncs binds the registry operations to wasm signatures.
func hostFuncs(reg *registry.Registry) []hostFunc {
	return []hostFunc{
		{
			name:   "log",
			params: []api.ValueType{i32, i32},
			fn: func(ctx context.Context, mod api.Module, stack []uint64) {
				reg.Log().Logf("%s", readString(mod, stack[0], stack[1]))
			},
		},
		{
			name:    "thread_create",
			params:  []api.ValueType{i32, i32, i32},
			results: []api.ValueType{i32},
			fn: func(ctx context.Context, mod api.Module, stack []uint64) {
				name := readString(mod, stack[0], stack[1])
				h := reg.CreateThread(name, api.DecodeI32(stack[2]), false)
				stack[0] = api.EncodeI32(int32(h))
			},
		},
		{
			name:    "thread_join",
			params:  []api.ValueType{i32},
			results: []api.ValueType{i32},
			fn: func(ctx context.Context, mod api.Module, stack []uint64) {
				code := reg.Join(handle(stack[0]))
				stack[0] = api.EncodeI32(int32(code))
			},
		},
		{
			name:    "thread_self",
			results: []api.ValueType{i32},
			fn: func(ctx context.Context, mod api.Module, stack []uint64) {
				stack[0] = api.EncodeI32(int32(reg.Self()))
			},
		},
		{
			name:   "thread_cancel",
			params: []api.ValueType{i32},
			fn: func(ctx context.Context, mod api.Module, stack []uint64) {
				reg.Cancel(handle(stack[0]))
			},
		},
		{
			// thread_name copies at most cap bytes of the name into the guest
			// buffer and returns how many were written.
			name:    "thread_name",
			params:  []api.ValueType{i32, i32, i32},
			results: []api.ValueType{i32},
			fn: func(ctx context.Context, mod api.Module, stack []uint64) {
				name := reg.ThreadName(handle(stack[0]))
				n := writeString(mod, stack[1], stack[2], name)
				stack[0] = api.EncodeI32(int32(n))
			},
		},
		{
			name:   "debug",
			params: []api.ValueType{i32},
			fn: func(ctx context.Context, mod api.Module, stack []uint64) {
				reg.SetDebug(api.DecodeI32(stack[0]) != 0)
			},
		},
		{
			name:    "mutex_create",
			params:  []api.ValueType{i32, i32},
			results: []api.ValueType{i32},
			fn: func(ctx context.Context, mod api.Module, stack []uint64) {
				h := reg.CreateMutex(readString(mod, stack[0], stack[1]))
				stack[0] = api.EncodeI32(int32(h))
			},
		},
		{
			name:    "mutex_lock",
			params:  []api.ValueType{i32, i32},
			results: []api.ValueType{i32},
			fn: func(ctx context.Context, mod api.Module, stack []uint64) {
				ok := reg.Lock(handle(stack[0]), api.DecodeI32(stack[1]) == 0)
				stack[0] = encodeBool(ok)
			},
		},
		{
			name:   "mutex_unlock",
			params: []api.ValueType{i32},
			fn: func(ctx context.Context, mod api.Module, stack []uint64) {
				reg.Unlock(handle(stack[0]))
			},
		},
		{
			name:    "sem_create",
			params:  []api.ValueType{i32, i32},
			results: []api.ValueType{i32},
			fn: func(ctx context.Context, mod api.Module, stack []uint64) {
				h := reg.CreateSemaphore(readString(mod, stack[0], stack[1]))
				stack[0] = api.EncodeI32(int32(h))
			},
		},
		{
			name:   "sem_post",
			params: []api.ValueType{i32},
			fn: func(ctx context.Context, mod api.Module, stack []uint64) {
				reg.Post(handle(stack[0]))
			},
		},
		{
			name:    "sem_wait",
			params:  []api.ValueType{i32, i32},
			results: []api.ValueType{i32},
			fn: func(ctx context.Context, mod api.Module, stack []uint64) {
				ok := reg.Wait(handle(stack[0]), api.DecodeI32(stack[1]) == 0)
				stack[0] = encodeBool(ok)
			},
		},
		{
			name:    "timer_create",
			params:  []api.ValueType{i32, i32, f64, i32},
			results: []api.ValueType{i32},
			fn: func(ctx context.Context, mod api.Module, stack []uint64) {
				name := readString(mod, stack[0], stack[1])
				h := reg.CreateTimer(name, api.DecodeF64(stack[2]), handle(stack[3]))
				stack[0] = api.EncodeI32(int32(h))
			},
		},
		{
			name:   "sleep",
			params: []api.ValueType{f64},
			fn: func(ctx context.Context, mod api.Module, stack []uint64) {
				reg.Sleep(api.DecodeF64(stack[0]))
			},
		},
	}
}

// instantiateHost installs the stl import module into rt.
func instantiateHost(ctx context.Context, rt wazero.Runtime, funcs []hostFunc) (api.Module, error) {
	builder := rt.NewHostModuleBuilder(HostModule)
	for _, f := range funcs {
		builder.NewFunctionBuilder().
			WithGoModuleFunction(f.fn, f.params, f.results).
			Export(f.name)
	}
	return builder.Instantiate(ctx)
}

func handle(v uint64) registry.Handle {
	return registry.Handle(api.DecodeI32(v))
}

func encodeBool(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

// readString copies len bytes at ptr out of the guest's memory. A bad range
// panics; wazero turns the panic into an error from the guest call.
func readString(mod api.Module, ptr, n uint64) string {
	mem := mod.Memory()
	if mem == nil {
		panic(errors.InvalidInput(errors.PhaseWasm, "guest passed a string but exports no memory"))
	}
	b, ok := mem.Read(api.DecodeU32(ptr), api.DecodeU32(n))
	if !ok {
		panic(errors.New(errors.PhaseWasm, errors.KindInvalidInput).
			Detail("string at %d+%d is out of bounds", api.DecodeU32(ptr), api.DecodeU32(n)).
			Build())
	}
	return string(b)
}

// writeString copies s, truncated to n bytes, into the guest's memory at ptr.
func writeString(mod api.Module, ptr, n uint64, s string) uint32 {
	mem := mod.Memory()
	if mem == nil {
		panic(errors.InvalidInput(errors.PhaseWasm, "guest passed a buffer but exports no memory"))
	}
	b := []byte(s)
	if limit := api.DecodeU32(n); uint32(len(b)) > limit {
		b = b[:limit]
	}
	if !mem.Write(api.DecodeU32(ptr), b) {
		panic(errors.New(errors.PhaseWasm, errors.KindInvalidInput).
			Detail("buffer at %d+%d is out of bounds", api.DecodeU32(ptr), len(b)).
			Build())
	}
	return uint32(len(b))
}
