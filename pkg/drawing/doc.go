// Package drawing provides the in-memory CAD drawing model and its JSON
// file format.
//
// # Model
//
// A [Drawing] holds model-space entities, block definitions, named views and
// an ordered list of layouts. Exactly one layout is model space (the
// unbounded drawing canvas); the others are paper-space sheets that may
// declare a plot rectangle, the units it is given in and where the plot
// area comes from ([PlotArea]).
//
// Entities form a closed set of pointer types ([Line], [Polyline], [Circle],
// [Arc], [Text], [Point], [Insert]) behind the [Entity] interface. Code that
// needs per-type behaviour switches over them exhaustively.
//
// # File Format
//
// Drawings are stored as JSON. Points are arrays of two or three numbers;
// layout enums are lower-case strings:
//
//	{
//	  "name": "bracket",
//	  "entities": [
//	    {"type": "line", "start": [0, 0], "end": [10, 5]},
//	    {"type": "insert", "block": "bolt", "position": [4, 2], "rotation": 45}
//	  ],
//	  "blocks": [{"name": "bolt", "entities": [{"type": "circle", "center": [0, 0], "radius": 0.25}]}],
//	  "layouts": [
//	    {"name": "Sheet 1", "tab_order": 1, "plot_area": "layout_information",
//	     "plot_units": "mm", "plot_rect": [0, 0, 210, 297]}
//	  ],
//	  "views": [{"name": "Detail", "center": [2, 1], "width": 4, "height": 3}]
//	}
//
// Use [Load] or [Read] to decode and [Save] or [Write] to encode. A missing
// model layout is synthesised on read.
//
// # Samples
//
// [Sample] and [WelcomeSample] build drawings in code for demos, the web
// preview and tests.
//
// # Concurrency
//
// A Drawing is not safe for concurrent modification. The export engine only
// reads it, so any number of exports may share one loaded drawing.
package drawing
