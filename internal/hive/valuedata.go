package hive

import (
	"bytes"
	"fmt"
	"io"

	"github.com/regfkit/regf/internal/format"
)

// DataStream is a value's bytes, read lazily: for a big-data value the
// underlying blocks aren't fetched until ReadAt actually touches them.
type DataStream struct {
	e      *Engine
	inline []byte // set when the value's data was packed into the vk cell
	length int64
	cell   uint32 // hive-relative offset of a plain data cell, or a db cell
	isDB   bool
}

func (d *DataStream) Size() int64 { return d.length }

// ReadAt implements io.ReaderAt over the value's logical byte range,
// transparently reassembling big-data (db) segments when needed.
func (d *DataStream) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off > d.length {
		return 0, fmt.Errorf("hive: value data offset %d out of range", off)
	}
	if rem := d.length - off; int64(len(p)) > rem {
		// Never hand back bytes past the declared length.
		if rem == 0 {
			return 0, io.EOF
		}
		n, err := d.ReadAt(p[:rem], off)
		if err == nil {
			err = io.EOF
		}
		return n, err
	}
	if d.inline != nil {
		n := copy(p, d.inline[off:])
		if n < len(p) {
			return n, fmt.Errorf("hive: short inline read")
		}
		return n, nil
	}
	if err := d.e.checkAborted(); err != nil {
		return 0, err
	}
	cell, err := d.e.bins.cellAt(d.cell)
	if err != nil {
		return 0, fmt.Errorf("hive: value data cell at %d: %w", d.cell, err)
	}
	if !d.isDB {
		avail := int64(len(cell.Data))
		if off >= avail {
			return 0, fmt.Errorf("hive: value data cell at %d shorter than declared length", d.cell)
		}
		n := copy(p, cell.Data[off:min64(avail, off+int64(len(p)))])
		return n, nil
	}
	return d.readBigData(cell.Data, p, off)
}

func (d *DataStream) readBigData(dbData []byte, p []byte, off int64) (int, error) {
	db, err := format.DecodeDB(dbData)
	if err != nil {
		return 0, fmt.Errorf("hive: db record: %w", err)
	}
	blockListCell, err := d.e.bins.cellAt(db.BlockListOffset)
	if err != nil {
		return 0, fmt.Errorf("hive: db block list at %d: %w", db.BlockListOffset, err)
	}
	blocks, err := format.DecodeDBBlockList(blockListCell.Data, db.BlockCount)
	if err != nil {
		return 0, fmt.Errorf("hive: db block list: %w", err)
	}

	written := 0
	pos := int64(0)
	for _, blockOffset := range blocks {
		if err := d.e.checkAborted(); err != nil {
			return written, err
		}
		blockCell, err := d.e.bins.cellAt(blockOffset)
		if err != nil {
			return written, fmt.Errorf("hive: db block at %d: %w", blockOffset, err)
		}
		chunk := blockCell.Data
		if len(chunk) > format.DBBlockTrailer {
			chunk = chunk[:len(chunk)-format.DBBlockTrailer]
		}
		blockStart, blockEnd := pos, pos+int64(len(chunk))
		pos = blockEnd

		if off >= blockEnd {
			continue
		}
		readStart := int64(0)
		if off > blockStart {
			readStart = off - blockStart
		}
		destStart := blockStart + readStart - off
		if destStart < 0 || destStart >= int64(len(p)) {
			if written > 0 {
				break
			}
			continue
		}
		n := copy(p[destStart:], chunk[readStart:])
		written = int(destStart) + n
		if written >= len(p) {
			break
		}
	}
	return written, nil
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

// ValueData builds the DataStream for a decoded vk record.
func (e *Engine) ValueData(vk format.VKRecord) (*DataStream, error) {
	length := int64(vk.DataLength)
	if vk.Inline {
		return &DataStream{e: e, inline: vk.Data, length: int64(len(vk.Data))}, nil
	}
	if length == 0 {
		return &DataStream{e: e, inline: []byte{}, length: 0}, nil
	}
	if err := e.checkAborted(); err != nil {
		return nil, err
	}
	cell, err := e.bins.cellAt(vk.DataCell)
	if err != nil {
		return nil, fmt.Errorf("hive: value data cell at %d: %w", vk.DataCell, err)
	}
	isDB := len(cell.Data) >= format.SignatureSize && bytes.Equal(cell.Data[:format.SignatureSize], format.DBSignature)
	return &DataStream{e: e, length: length, cell: vk.DataCell, isDB: isDB}, nil
}
