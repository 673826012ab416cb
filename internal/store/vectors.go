package store

import (
	"context"
	"database/sql"
	"encoding/binary"
	"math"

	"github.com/standardbeagle/codegraph/internal/cgerrors"
	"github.com/standardbeagle/codegraph/internal/types"
)

// InsertVectors upserts embedding rows in one transaction (spec §4.A, §4.G).
func (s *Store) InsertVectors(ctx context.Context, vectors []types.Vector) error {
	if len(vectors) == 0 {
		return nil
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO vectors (node_id, dimension, model_id, values)
			VALUES (?,?,?,?)
			ON CONFLICT(node_id) DO UPDATE SET dimension=excluded.dimension, model_id=excluded.model_id, values=excluded.values
		`)
		if err != nil {
			return cgerrors.NewDatabaseError("prepare insertVectors", false, err)
		}
		defer stmt.Close()

		for _, v := range vectors {
			if _, err := stmt.ExecContext(ctx, v.NodeID, v.Dimension, v.ModelID, encodeFloat32s(v.Values)); err != nil {
				return cgerrors.NewDatabaseError("insertVectors", false, err)
			}
		}
		return nil
	})
}

// AllVectors loads every stored vector, the HNSW index's warm-start input
// (spec §4.G: rebuilt on open since the index itself isn't persisted).
func (s *Store) AllVectors(ctx context.Context) ([]types.Vector, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT node_id, dimension, model_id, values FROM vectors`)
	if err != nil {
		return nil, cgerrors.NewDatabaseError("allVectors", false, err)
	}
	defer rows.Close()

	var out []types.Vector
	for rows.Next() {
		var v types.Vector
		var blob []byte
		if err := rows.Scan(&v.NodeID, &v.Dimension, &v.ModelID, &blob); err != nil {
			return nil, cgerrors.NewDatabaseError("allVectors scan", false, err)
		}
		v.Values = decodeFloat32s(blob)
		out = append(out, v)
	}
	return out, rows.Err()
}

// DeleteVector removes one node's embedding.
func (s *Store) DeleteVector(ctx context.Context, nodeID string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM vectors WHERE node_id = ?`, nodeID); err != nil {
			return cgerrors.NewDatabaseError("deleteVector", false, err)
		}
		return nil
	})
}

func encodeFloat32s(vals []float32) []byte {
	buf := make([]byte, len(vals)*4)
	for i, v := range vals {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func decodeFloat32s(buf []byte) []float32 {
	n := len(buf) / 4
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return out
}
