// Package pkg provides the libraries of the whiteboard engine.
//
// # Overview
//
// Whiteboard keeps a hand-drawn board in sync between everyone viewing it.
// Every change is broadcast as the full element sequence and the last message
// wins. The pkg directory is organized into three areas:
//
//  1. Engine: [element], [render], [history], [session], [input], [collab]
//     and [client], the per-user runtime that ties them to one event loop.
//  2. Wire: [protocol] envelopes, the [ws] transport and the [storage] client
//     for the load endpoint.
//  3. Persistence: the [store] interface and its memory, bolt, redis, mongo
//     and postgres drivers, used by the relay.
//
// # Architecture
//
//	pointer / keyboard input
//	         ↓
//	    [input] machine (draw, erase, write, undo)
//	         ↓
//	    [session] state + [history]
//	         ↓                    ↘
//	    [render] → surface      [collab] → [protocol] → relay
//
// # Quick Start
//
// Render a stored board to SVG:
//
//	elements, _ := storage.NewClient("http://localhost:8080", token).Load(ctx, "b1")
//	w, h := render.Extent(elements, 20)
//	svg := sink.NewSVG(sink.WithSize(w, h))
//	_ = render.New().Render(svg, elements)
//	os.WriteFile("b1.svg", svg.Bytes(), 0o644)
//
// [element]: github.com/matzehuels/whiteboard/pkg/element
// [render]: github.com/matzehuels/whiteboard/pkg/render
// [history]: github.com/matzehuels/whiteboard/pkg/history
// [session]: github.com/matzehuels/whiteboard/pkg/session
// [input]: github.com/matzehuels/whiteboard/pkg/input
// [collab]: github.com/matzehuels/whiteboard/pkg/collab
// [client]: github.com/matzehuels/whiteboard/pkg/client
// [protocol]: github.com/matzehuels/whiteboard/pkg/protocol
// [ws]: github.com/matzehuels/whiteboard/pkg/transport/ws
// [storage]: github.com/matzehuels/whiteboard/pkg/storage
// [store]: github.com/matzehuels/whiteboard/pkg/store
package pkg
