// Package script runs JavaScript against a namespace table.
//
// The table is exposed as plain nested objects, one property per supported
// endpoint, so scripts see exactly what the network serves:
//
//	var hash = api.chain.getBlockHash(0);
//	var block = api.chain.getBlock(hash);
//	console.log(block.block.header.number);
//	block.block.header.number;
//
// Calling an endpoint the network does not serve is a TypeError, not an RPC.
package script

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dop251/goja"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"

	"rpcns/internal/namespace"
)

// DefaultTimeout is the default script execution timeout
const DefaultTimeout = 30 * time.Second

// ErrTimeout is returned when a script runs past its deadline
var ErrTimeout = errors.New("script execution timed out")

// Runtime executes scripts with the api, console and utils bindings.
// Each Run uses a fresh VM, so a Runtime is safe for concurrent use.
type Runtime struct {
	table   *namespace.Table
	timeout time.Duration
	logger  zerolog.Logger
}

// NewRuntime creates a new Runtime for table
func NewRuntime(table *namespace.Table, logger zerolog.Logger) *Runtime {
	return &Runtime{
		table:   table,
		timeout: DefaultTimeout,
		logger:  logger.With().Str("component", "script").Logger(),
	}
}

// SetTimeout sets the execution timeout
func (r *Runtime) SetTimeout(timeout time.Duration) {
	r.timeout = timeout
}

// RunFile reads and runs a script file
func (r *Runtime) RunFile(ctx context.Context, path string) (interface{}, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script file: %w", err)
	}
	return r.Run(ctx, string(content))
}

// Run executes source and returns the exported value of its last expression
func (r *Runtime) Run(ctx context.Context, source string) (interface{}, error) {
	execCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	vm := goja.New()
	vm.SetFieldNameMapper(goja.TagFieldNameMapper("json", true))

	r.setupConsole(vm)
	r.setupUtils(vm)
	r.setupAPI(execCtx, vm)

	stop := context.AfterFunc(execCtx, func() {
		vm.Interrupt(execCtx.Err())
	})
	defer stop()

	value, err := vm.RunString(source)
	if err != nil {
		var interrupted *goja.InterruptedError
		if errors.As(err, &interrupted) {
			if errors.Is(execCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
				r.logger.Warn().Dur("timeout", r.timeout).Msg("script execution timed out")
				return nil, ErrTimeout
			}
			return nil, fmt.Errorf("script cancelled: %w", ctx.Err())
		}
		var jsErr *goja.Exception
		if errors.As(err, &jsErr) {
			return nil, fmt.Errorf("script error: %s", jsErr.Value().String())
		}
		return nil, fmt.Errorf("script error: %w", err)
	}

	if value == nil || goja.IsUndefined(value) {
		return nil, nil
	}
	return value.Export(), nil
}

// setupAPI creates the api object with one function per built endpoint
func (r *Runtime) setupAPI(ctx context.Context, vm *goja.Runtime) {
	api := vm.NewObject()

	for _, nsName := range r.table.Namespaces() {
		ns, _ := r.table.Namespace(nsName)
		obj := vm.NewObject()

		for _, endpoint := range ns.Names() {
			fn, _ := ns.Get(endpoint)
			method, _ := ns.Method(endpoint)
			obj.Set(endpoint, r.endpointFunc(ctx, vm, method, fn))
		}

		api.Set(nsName, obj)
	}

	vm.Set("api", api)
}

func (r *Runtime) endpointFunc(ctx context.Context, vm *goja.Runtime, method string, fn namespace.Func) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		var arg interface{}
		if len(call.Arguments) > 0 {
			arg = call.Arguments[0].Export()
		}

		result, err := fn(ctx, arg)
		if err != nil {
			panic(vm.NewGoError(fmt.Errorf("%s failed: %w", method, err)))
		}

		var parsed interface{}
		if err := json.Unmarshal(result, &parsed); err != nil {
			return vm.ToValue(string(result))
		}
		return vm.ToValue(parsed)
	}
}

// setupConsole creates console bindings mapped to the logger
func (r *Runtime) setupConsole(vm *goja.Runtime) {
	console := vm.NewObject()

	logAt := func(event func() *zerolog.Event) func(goja.FunctionCall) goja.Value {
		return func(call goja.FunctionCall) goja.Value {
			args := make([]string, len(call.Arguments))
			for i, arg := range call.Arguments {
				args[i] = arg.String()
			}
			event().Msg(strings.Join(args, " "))
			return goja.Undefined()
		}
	}

	console.Set("log", logAt(r.logger.Info))
	console.Set("info", logAt(r.logger.Info))
	console.Set("debug", logAt(r.logger.Debug))
	console.Set("warn", logAt(r.logger.Warn))
	console.Set("error", logAt(r.logger.Error))

	vm.Set("console", console)
}

// setupUtils creates hashing and hex helpers
func (r *Runtime) setupUtils(vm *goja.Runtime) {
	utils := vm.NewObject()

	utils.Set("hexToBytes", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 1 {
			panic(vm.ToValue("hexToBytes requires 1 argument"))
		}
		data, err := decodeHex(call.Arguments[0].String())
		if err != nil {
			panic(vm.ToValue(err.Error()))
		}
		return vm.ToValue(vm.NewArrayBuffer(data))
	})

	utils.Set("bytesToHex", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 1 {
			panic(vm.ToValue("bytesToHex requires 1 argument"))
		}
		data, ok := exportBytes(call.Arguments[0].Export())
		if !ok {
			panic(vm.ToValue("bytesToHex requires byte array"))
		}
		return vm.ToValue("0x" + hex.EncodeToString(data))
	})

	// blake2_256 is the hasher used for Substrate block and extrinsic hashes
	utils.Set("blake2_256", func(call goja.FunctionCall) goja.Value {
		data := r.hashInput(vm, call, "blake2_256")
		sum := blake2b.Sum256(data)
		return vm.ToValue("0x" + hex.EncodeToString(sum[:]))
	})

	utils.Set("keccak256", func(call goja.FunctionCall) goja.Value {
		data := r.hashInput(vm, call, "keccak256")
		hash := sha3.NewLegacyKeccak256()
		hash.Write(data)
		return vm.ToValue("0x" + hex.EncodeToString(hash.Sum(nil)))
	})

	vm.Set("utils", utils)
}

// hashInput accepts a 0x hex string, a plain string or a byte array
func (r *Runtime) hashInput(vm *goja.Runtime, call goja.FunctionCall, name string) []byte {
	if len(call.Arguments) < 1 {
		panic(vm.ToValue(name + " requires 1 argument"))
	}
	exported := call.Arguments[0].Export()
	if s, ok := exported.(string); ok {
		if strings.HasPrefix(s, "0x") {
			data, err := decodeHex(s)
			if err != nil {
				panic(vm.ToValue(err.Error()))
			}
			return data
		}
		return []byte(s)
	}
	data, ok := exportBytes(exported)
	if !ok {
		panic(vm.ToValue(name + " requires string or byte array"))
	}
	return data
}

func decodeHex(s string) ([]byte, error) {
	data, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid hex string: %v", err)
	}
	return data, nil
}

func exportBytes(v interface{}) ([]byte, bool) {
	switch b := v.(type) {
	case []byte:
		return b, true
	case goja.ArrayBuffer:
		return b.Bytes(), true
	case []interface{}:
		out := make([]byte, len(b))
		for i, item := range b {
			switch n := item.(type) {
			case int64:
				out[i] = byte(n)
			case float64:
				out[i] = byte(n)
			default:
				return nil, false
			}
		}
		return out, true
	default:
		return nil, false
	}
}
