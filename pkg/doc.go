// Package pkg provides the core libraries for imagecombiner.
//
// # Overview
//
// imagecombiner lays out two or more images in a single row or column,
// aligns them across the layout axis, separates them with a uniform gap and
// exports the composite as JPEG or PNG. The pkg directory is organized into
// three areas:
//
//  1. Domain - [layout] plans, [compositor] drawing, [sequence] reordering,
//     [export] resizing and encoding
//  2. Intake and state - [intake] decoding and clipboard, [imageref] decoded
//     images, [workspace] the editable image list with freshness tokens
//  3. Infrastructure - [pipeline] orchestration, [cache] file and Redis
//     caches, [session] workspace expiry, [config], [errors], [observability]
//
// # Architecture
//
// The typical data flow:
//
//	Files / uploads / clipboard
//	         ↓
//	    [intake] package (decode concurrently)
//	         ↓
//	    [layout] package (compute placements)
//	         ↓
//	    [compositor] package (draw onto one canvas)
//	         ↓
//	    [export] package (resize, encode)
//	         ↓
//	    JPEG/PNG output
//
// [pipeline.Runner] runs these stages with caching for the CLI and the HTTP
// service. [workspace.Workspace] keeps an editable list for interactive
// hosts and discards composites overtaken by later edits.
//
// # Quick Start
//
//	runner := pipeline.NewRunner(nil, nil, nil)
//	payloads, _ := intake.FromFiles([]string{"a.png", "b.png"})
//	result, err := runner.Execute(ctx, payloads, pipeline.Options{
//	    Orientation: "row",
//	    Alignment:   "center",
//	    Gap:         10,
//	})
//	if err != nil {
//	    return err
//	}
//	os.WriteFile(result.Filename, result.Encoded, 0o644)
package pkg
