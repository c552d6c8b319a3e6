package observability

import (
	"context"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	// Pipeline hooks
	p := NoopPipelineHooks{}
	p.OnDecodeStart(ctx, 3)
	p.OnDecodeComplete(ctx, 2, 1, time.Second, nil)
	p.OnCompositeStart(ctx, 2, "row")
	p.OnCompositeComplete(ctx, 190, 90, time.Second, nil)
	p.OnExportStart(ctx, "jpeg")
	p.OnExportComplete(ctx, "jpeg", 1024, time.Second, nil)

	// Cache hooks
	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "composite")
	c.OnCacheMiss(ctx, "export")
	c.OnCacheSet(ctx, "export", 1024)

	// Workspace hooks
	w := NoopWorkspaceHooks{}
	w.OnRecompose(ctx, 7, false, time.Millisecond)

	// HTTP hooks
	h := NoopHTTPHooks{}
	h.OnRequest(ctx, "POST", "/v1/combine")
	h.OnResponse(ctx, "POST", "/v1/combine", 200, time.Second)
	h.OnError(ctx, "POST", "/v1/combine", nil)
}

func TestGlobalHooksRegistry(t *testing.T) {
	// Reset to known state
	Reset()

	// Verify defaults are noop
	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Error("Pipeline() should return NoopPipelineHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}
	if _, ok := Workspace().(NoopWorkspaceHooks); !ok {
		t.Error("Workspace() should return NoopWorkspaceHooks by default")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("HTTP() should return NoopHTTPHooks by default")
	}

	// Set custom hooks
	customPipeline := &testPipelineHooks{}
	SetPipelineHooks(customPipeline)
	if Pipeline() != customPipeline {
		t.Error("SetPipelineHooks should set custom hooks")
	}

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != customCache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	customWorkspace := &testWorkspaceHooks{}
	SetWorkspaceHooks(customWorkspace)
	if Workspace() != customWorkspace {
		t.Error("SetWorkspaceHooks should set custom hooks")
	}

	customHTTP := &testHTTPHooks{}
	SetHTTPHooks(customHTTP)
	if HTTP() != customHTTP {
		t.Error("SetHTTPHooks should set custom hooks")
	}

	// Reset and verify
	Reset()
	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Error("Reset() should restore NoopPipelineHooks")
	}
	if _, ok := Workspace().(NoopWorkspaceHooks); !ok {
		t.Error("Reset() should restore NoopWorkspaceHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()

	custom := &testPipelineHooks{}
	SetPipelineHooks(custom)

	// Setting nil should be ignored
	SetPipelineHooks(nil)

	if Pipeline() != custom {
		t.Error("SetPipelineHooks(nil) should be ignored")
	}

	Reset()
}

// Test implementations
type testPipelineHooks struct{ NoopPipelineHooks }
type testCacheHooks struct{ NoopCacheHooks }
type testWorkspaceHooks struct{ NoopWorkspaceHooks }
type testHTTPHooks struct{ NoopHTTPHooks }
