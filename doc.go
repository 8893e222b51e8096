// Package dataminer mines character records and their localized text out of
// decoded game tables into SQLite databases.
//
// # Pipeline
//
// A run has two concurrent workers joined by a channel of name requests:
//
//  1. Extract: base character rows are joined with their parameter rows,
//     classified into a common, promoted or top-tier bucket, given stats
//     from the growth table, and written in batches to characters.sqlite.
//     The first entity produced for a base row sends one request carrying
//     its name and description ids.
//
//  2. Resolve: each locale indexes its name and description tables at
//     startup and writes its series names. Requests are buffered and
//     written to text/<locale>.sqlite, all locales in parallel, every time
//     the buffer fills and once more when the channel closes.
//
// # Usage
//
//	cfg, err := config.Load("dataminer.yaml")
//	if err != nil { ... }
//
//	m := dataminer.New(cfg)
//	sum, err := m.Run(ctx)
//	fmt.Println(sum.Ignored, sum.TotalMissing)
//
//	results, err := m.Check(ctx)
//
// The table dumps are produced by an external cfg.bin decoder and read as
// JSON by default; [WithDecoder] plugs in another reader.
package dataminer
