package store

import (
	"math"
	"sort"

	"github.com/pawsona/pawsona/internal/models"
)

// row pairs a document with the unit-normalized copy of its embedding.
// unit is nil when the stored embedding had zero magnitude; such rows can
// never rank meaningfully and are skipped during search.
type row struct {
	doc  models.Document
	unit []float32
}

// normalize returns a unit-length copy of v, or nil for a zero vector.
func normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return nil
	}
	inv := 1 / math.Sqrt(sum)
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) * inv)
	}
	return out
}

// dot accumulates in float64 to keep summation error down on long vectors.
func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func buildRows(docs []models.Document) []row {
	rows := make([]row, len(docs))
	for i, d := range docs {
		rows[i] = row{doc: d, unit: normalize(d.Embedding)}
	}
	return rows
}

// searchRows is the brute-force scan shared by the in-memory backends:
// cosine over every candidate, stable sort descending (ties keep insertion
// order), truncate to k, then drop scores below minScore.
func searchRows(rows []row, query []float32, k int, typeCode string, minScore float64) []models.RetrievedDocument {
	if len(rows) == 0 || k <= 0 {
		return nil
	}

	q := normalize(query)
	if q == nil {
		return nil
	}

	type candidate struct {
		idx   int
		score float64
	}
	cands := make([]candidate, 0, len(rows))
	for i := range rows {
		if rows[i].unit == nil {
			continue
		}
		if typeCode != "" && rows[i].doc.TypeCode != typeCode {
			continue
		}
		cands = append(cands, candidate{idx: i, score: dot(q, rows[i].unit)})
	}

	sort.SliceStable(cands, func(a, b int) bool {
		return cands[a].score > cands[b].score
	})

	if len(cands) > k {
		cands = cands[:k]
	}

	results := make([]models.RetrievedDocument, 0, len(cands))
	for _, c := range cands {
		if c.score < minScore {
			continue
		}
		results = append(results, models.RetrievedDocument{
			Document: rows[c.idx].doc,
			Score:    c.score,
		})
	}
	return results
}
