// Package dataset reads and writes selection problems as files.
//
// # Formats
//
// JSON, YAML and TOML files share one document shape:
//
//	{
//	  "budget": 300,
//	  "precision": 2,
//	  "algorithm": "dp",
//	  "items": [
//	    {"id": "roads", "cost": 120, "value": 130},
//	    {"id": "parks", "cost": 80}
//	  ]
//	}
//
// Only items (or the costs shorthand) are required. budget, precision and
// algorithm may be given on the command line instead. The costs shorthand
// lists bare costs and produces unweighted items:
//
//	budget: 300
//	costs: [120, 80, 150, 40]
//
// CSV files hold items only, one per row, with a header naming the columns
// id, cost and value (cost is required, the others optional):
//
//	id,cost,value
//	roads,120,130
//	parks,80,
//
// # Format Detection
//
// [Load] picks the format from the file extension: .json, .yaml/.yml,
// .toml or .csv. Use [Read] to decode from any io.Reader with an explicit
// format.
package dataset
