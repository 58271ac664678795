//go:generate flatc --go --go-namespace fb -o internal schema/footer.fbs

// Package pod5 reads and writes POD5 nanopore signal containers.
//
// A POD5 file is a binary envelope around several Arrow IPC tables (signal,
// reads, run info and optional indexes). A FlatBuffers footer at the end of
// the file lists where each table lives. This package validates the
// envelope, parses the footer into a table of contents and hands each table
// to the caller as a bounds-checked byte range. Decoding the Arrow tables
// themselves is left to a columnar reader of the caller's choice.
//
// Raw signal cells are compressed with svb16 inside zstd ("VBZ"); the
// Container decodes them given the cell locations and sample counts read
// from the signal table.
//
// # Reading
//
//	f, err := pod5.OpenFile("reads.pod5", pod5.WithMmap(true))
//	if err != nil {
//	    return err
//	}
//	defer f.Close()
//
//	signal, err := f.Table(pod5.RoleSignal)
//	if err != nil {
//	    return err
//	}
//	section, err := f.TableSection(signal) // hand to an Arrow IPC reader
//
// Once the columnar reader yields the signal column's cell spans and the
// samples column, decode every row in parallel:
//
//	rows, err := f.DecodeSignalColumn(signal, cells, counts)
//
// # Writing
//
//	w, err := pod5.NewWriter(out, pod5.WithSoftware("my-basecaller"))
//	if err != nil {
//	    return err
//	}
//	if _, err := w.WriteTable(pod5.ContentSignalTable, signalIPC); err != nil {
//	    return err
//	}
//	err = w.Close()
//
// All errors wrap the sentinels below and can be tested with errors.Is.
package pod5
