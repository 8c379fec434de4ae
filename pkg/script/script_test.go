package script

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Toasterson/bastel-project-webhookinator/pkg/bridge"
	"github.com/Toasterson/bastel-project-webhookinator/pkg/errs"
	"github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/stretchr/testify/assert"
)

func payload(s string) any {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		panic(err)
	}
	return v
}

var _ = ginkgo.Describe("Host", func() {
	var host *Host
	ctx := context.Background()

	ginkgo.BeforeEach(func() {
		host = NewHost(Options{})
	})

	ginkgo.Context("evaluation", func() {
		ginkgo.It("returns the pull request url", func() {
			res, err := host.Evaluate(ctx,
				payload(`{"pull_request": {"url": "https://api.github.com/repos/o/r/pulls/1"}}`),
				NewSource("", "body.pull_request.url;"))
			assert.Nil(ginkgo.GinkgoT(), err)
			assert.Equal(ginkgo.GinkgoT(), "https://api.github.com/repos/o/r/pulls/1", res)
		})

		ginkgo.It("returns nil for a missing field", func() {
			res, err := host.Evaluate(ctx, payload(`{"pull_request": {}}`), NewSource("", "body.pull_request.url;"))
			assert.Nil(ginkgo.GinkgoT(), err)
			assert.Nil(ginkgo.GinkgoT(), res)
		})

		ginkgo.It("returns structured results", func() {
			res, err := host.Evaluate(ctx, payload(`{"a": 1, "b": [1, 2]}`),
				NewSource("", `({sum: body.a + body.b.length, keys: Object.keys(body)})`))
			assert.Nil(ginkgo.GinkgoT(), err)
			assert.Equal(ginkgo.GinkgoT(), map[string]any{
				"sum":  float64(3),
				"keys": []any{"a", "b"},
			}, res)
		})

		ginkgo.It("returns the value of the last statement", func() {
			res, err := host.Evaluate(ctx, payload(`{}`), NewSource("", "var x = 1; if (x) { 'yes' } else { 'no' }"))
			assert.Nil(ginkgo.GinkgoT(), err)
			assert.Equal(ginkgo.GinkgoT(), "yes", res)
		})

		ginkgo.It("accepts non-object payloads", func() {
			for _, p := range []string{`null`, `"text"`, `[1, 2]`, `7`} {
				res, err := host.Evaluate(ctx, payload(p), NewSource("", "body"))
				assert.Nil(ginkgo.GinkgoT(), err, p)
				assert.Equal(ginkgo.GinkgoT(), payload(p), res, p)
			}
		})

		ginkgo.It("returns nil for an empty script", func() {
			res, err := host.Evaluate(ctx, payload(`{}`), NewSource("", ""))
			assert.Nil(ginkgo.GinkgoT(), err)
			assert.Nil(ginkgo.GinkgoT(), res)
		})
	})

	ginkgo.Context("isolation", func() {
		ginkgo.It("does not leak globals between evaluations", func() {
			_, err := host.Evaluate(ctx, payload(`{}`), NewSource("", "var leaked = 1; globalThis.other = 2; Object.prototype.polluted = true;"))
			assert.Nil(ginkgo.GinkgoT(), err)

			res, err := host.Evaluate(ctx, payload(`{}`),
				NewSource("", "[typeof leaked, typeof other, ({}).polluted === undefined]"))
			assert.Nil(ginkgo.GinkgoT(), err)
			assert.Equal(ginkgo.GinkgoT(), []any{"undefined", "undefined", true}, res)
		})

		ginkgo.It("does not let a script rebind body", func() {
			res, err := host.Evaluate(ctx, payload(`{"a": 1}`), NewSource("", "body = 5; body.a"))
			assert.Nil(ginkgo.GinkgoT(), err)
			assert.Equal(ginkgo.GinkgoT(), float64(1), res)

			_, err = host.Evaluate(ctx, payload(`{"a": 1}`), NewSource("", "'use strict'; body = 5;"))
			assert.Equal(ginkgo.GinkgoT(), errs.KindRuntime, errs.KindOf(err))
		})

		ginkgo.It("does not mutate the caller's payload", func() {
			p := payload(`{"a": {"b": 1}}`)
			_, err := host.Evaluate(ctx, p, NewSource("", "body.a.b = 2; body.c = 3; body"))
			assert.Nil(ginkgo.GinkgoT(), err)
			assert.Equal(ginkgo.GinkgoT(), payload(`{"a": {"b": 1}}`), p)
		})

		ginkgo.It("is safe for concurrent use", func() {
			var wg sync.WaitGroup
			results := make([]any, 16)
			for i := range results {
				wg.Add(1)
				go func() {
					defer wg.Done()
					res, err := host.Evaluate(ctx, map[string]any{"n": float64(i)}, NewSource("", "body.n * 2"))
					if err == nil {
						results[i] = res
					}
				}()
			}
			wg.Wait()
			for i, res := range results {
				Expect(res).To(Equal(float64(i * 2)))
			}
		})
	})

	ginkgo.Context("errors", func() {
		ginkgo.It("compile", func() {
			_, err := host.Evaluate(ctx, payload(`{}`), NewSource("handler", "body.(("))
			assert.Equal(ginkgo.GinkgoT(), errs.KindCompile, errs.KindOf(err))
		})

		ginkgo.It("runtime", func() {
			_, err := host.Evaluate(ctx, payload(`{}`), NewSource("handler", "body.missing.field"))
			assert.Equal(ginkgo.GinkgoT(), errs.KindRuntime, errs.KindOf(err))
			assert.Contains(ginkgo.GinkgoT(), err.Error(), "TypeError")

			_, err = host.Evaluate(ctx, payload(`{}`), NewSource("handler", "throw new Error('boom')"))
			assert.Equal(ginkgo.GinkgoT(), errs.KindRuntime, errs.KindOf(err))
			assert.Contains(ginkgo.GinkgoT(), err.Error(), "boom")
		})

		ginkgo.It("serialization", func() {
			_, err := host.Evaluate(ctx, payload(`{}`), NewSource("handler", "(function () {})"))
			assert.Equal(ginkgo.GinkgoT(), errs.KindSerialization, errs.KindOf(err))
			assert.True(ginkgo.GinkgoT(), errors.Is(err, bridge.ErrUnsupported))

			_, err = host.Evaluate(ctx, payload(`{}`), NewSource("handler", "var o = {}; o.o = o; o"))
			assert.Equal(ginkgo.GinkgoT(), errs.KindSerialization, errs.KindOf(err))
			assert.True(ginkgo.GinkgoT(), errors.Is(err, bridge.ErrCycle))
		})

		ginkgo.It("injection", func() {
			_, err := host.Evaluate(ctx, map[string]any{"ch": make(chan int)}, NewSource("handler", "body"))
			assert.Equal(ginkgo.GinkgoT(), errs.KindInjection, errs.KindOf(err))
		})

		ginkgo.It("reports panics with the kind of the step they happened in", func() {
			raise := func(step errs.Kind, v any) (err error) {
				defer recoverAs(&step, &err)
				panic(v)
			}

			err := raise(errs.KindSerialization, errors.New("boom"))
			assert.Equal(ginkgo.GinkgoT(), errs.KindSerialization, errs.KindOf(err))
			assert.True(ginkgo.GinkgoT(), errors.Is(err, ErrPanic))
			assert.Equal(ginkgo.GinkgoT(), "evaluation panicked: boom", err.Error())

			err = raise(errs.KindRuntime, "text")
			assert.Equal(ginkgo.GinkgoT(), errs.KindRuntime, errs.KindOf(err))
			assert.Equal(ginkgo.GinkgoT(), "evaluation panicked: text", err.Error())
		})

		ginkgo.It("serialization through inherited getters", func() {
			_, err := host.Evaluate(ctx, payload(`{}`), NewSource("handler", `
				Object.defineProperty(Object.prototype, "value", {get() { throw new Error("boom") }});
				({get x() { return 1 }})
			`))
			assert.Equal(ginkgo.GinkgoT(), errs.KindSerialization, errs.KindOf(err))
			assert.True(ginkgo.GinkgoT(), errors.Is(err, bridge.ErrUnsupported))
		})

		ginkgo.It("stack overflow", func() {
			host = NewHost(Options{MaxCallStackSize: 64})
			_, err := host.Evaluate(ctx, payload(`{}`), NewSource("handler", "function f() { return f() } f()"))
			assert.Equal(ginkgo.GinkgoT(), errs.KindRuntime, errs.KindOf(err))
		})
	})

	ginkgo.Context("interruption", func() {
		ginkgo.It("times out", func() {
			host = NewHost(Options{Timeout: 50 * time.Millisecond})
			start := time.Now()
			_, err := host.Evaluate(ctx, payload(`{}`), NewSource("handler", "for (;;) {}"))
			assert.Equal(ginkgo.GinkgoT(), errs.KindRuntime, errs.KindOf(err))
			assert.True(ginkgo.GinkgoT(), errors.Is(err, errs.ErrTimeout))
			assert.Less(ginkgo.GinkgoT(), time.Since(start), 5*time.Second)
		})

		ginkgo.It("stops when the context is cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			time.AfterFunc(50*time.Millisecond, cancel)
			_, err := host.Evaluate(cctx, payload(`{}`), NewSource("handler", "while (true) {}"))
			assert.Equal(ginkgo.GinkgoT(), errs.KindRuntime, errs.KindOf(err))
			assert.True(ginkgo.GinkgoT(), errors.Is(err, context.Canceled))
		})

		ginkgo.It("does not run with a cancelled context", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := host.Evaluate(cctx, payload(`{}`), NewSource("handler", "1"))
			assert.True(ginkgo.GinkgoT(), errors.Is(err, context.Canceled))
		})

		ginkgo.It("leaves fast scripts alone", func() {
			host = NewHost(Options{Timeout: time.Second})
			res, err := host.Evaluate(ctx, payload(`{"a": "b"}`), NewSource("handler", "body.a"))
			assert.Nil(ginkgo.GinkgoT(), err)
			assert.Equal(ginkgo.GinkgoT(), "b", res)
		})
	})

	ginkgo.Context("Source", func() {
		ginkgo.It("defaults the name", func() {
			assert.Equal(ginkgo.GinkgoT(), "handler", NewSource("", "1").Name)
			assert.Equal(ginkgo.GinkgoT(), "hook.js", NewSource("hook.js", "1").Name)
		})

		ginkgo.It("compiles", func() {
			assert.Nil(ginkgo.GinkgoT(), NewSource("", "body.x").Compile())
			assert.True(ginkgo.GinkgoT(), errs.Is(NewSource("", "}").Compile(), errs.KindCompile))
		})
	})
})

func Test(t *testing.T) {
	RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "Script Suite")
}
