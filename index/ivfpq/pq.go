package ivfpq

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/foundermatch/annidx/distance"
	"github.com/foundermatch/annidx/internal/kmeans"
)

var (
	errPQNotTrained = errors.New("ivfpq: product quantizer not trained")
)

// productQuantizer compresses vectors into m codes of up to 8 bits each.
// Each subvector is quantized independently against a codebook fit by
// k-means; search uses asymmetric distance computation against a per-query
// lookup table, so stored vectors are never decompressed on the hot path.
type productQuantizer struct {
	dim       int // D: original vector dimension
	m         int // number of subquantizers
	kCodes    int // centroids per subspace: 1 << bits
	subDim    int // D/m
	codebooks []float32 // m * kCodes * subDim
	kernels   distance.Kernels
	trained   bool
}

func newProductQuantizer(dim, m, bits int, kernels distance.Kernels) (*productQuantizer, error) {
	if dim <= 0 || m <= 0 {
		return nil, errors.New("ivfpq: dimension and subquantizers must be positive")
	}
	if dim%m != 0 {
		return nil, fmt.Errorf("ivfpq: dimension %d not divisible by %d subquantizers", dim, m)
	}
	if bits < 1 || bits > 8 {
		return nil, fmt.Errorf("ivfpq: bits per code must be in [1,8], got %d", bits)
	}

	kCodes := 1 << bits
	return &productQuantizer{
		dim:       dim,
		m:         m,
		kCodes:    kCodes,
		subDim:    dim / m,
		codebooks: make([]float32, m*kCodes*dim/m),
		kernels:   kernels,
	}, nil
}

// train fits one codebook per subspace on the row-major training buffer.
func (pq *productQuantizer) train(data []float32, rng *rand.Rand) error {
	n := len(data) / pq.dim
	if n == 0 {
		return errors.New("ivfpq: no vectors provided for training")
	}

	for m := 0; m < pq.m; m++ {
		sub := pq.subBuffer(data, n, m)
		base := m * pq.kCodes * pq.subDim

		if n < pq.kCodes {
			// Degenerate training set: cycle the rows as codebook entries.
			for c := 0; c < pq.kCodes; c++ {
				copy(pq.codebooks[base+c*pq.subDim:base+(c+1)*pq.subDim],
					sub[(c%n)*pq.subDim:(c%n+1)*pq.subDim])
			}
			continue
		}

		centroids, err := kmeans.Train(sub, pq.subDim, pq.kCodes, 20, pq.kernels, rng)
		if err != nil {
			return err
		}
		copy(pq.codebooks[base:base+pq.kCodes*pq.subDim], centroids)
	}

	pq.trained = true
	return nil
}

// subBuffer extracts the m-th subvector of every row into a contiguous buffer.
func (pq *productQuantizer) subBuffer(data []float32, n, m int) []float32 {
	out := make([]float32, n*pq.subDim)
	start := m * pq.subDim
	for i := 0; i < n; i++ {
		copy(out[i*pq.subDim:(i+1)*pq.subDim], data[i*pq.dim+start:i*pq.dim+start+pq.subDim])
	}
	return out
}

// encode quantizes a vector into m codes.
func (pq *productQuantizer) encode(vec []float32) ([]byte, error) {
	if !pq.trained {
		return nil, errPQNotTrained
	}
	codes := make([]byte, pq.m)
	for m := 0; m < pq.m; m++ {
		sub := vec[m*pq.subDim : (m+1)*pq.subDim]
		base := m * pq.kCodes * pq.subDim
		codebook := pq.codebooks[base : base+pq.kCodes*pq.subDim]
		codes[m] = byte(kmeans.Assign(sub, codebook, pq.subDim, pq.kernels))
	}
	return codes, nil
}

// distanceTable precomputes squared distances from a query to every centroid
// of every subspace. table[m*kCodes+c] is the contribution of code c in
// subspace m.
func (pq *productQuantizer) distanceTable(query []float32) ([]float32, error) {
	if !pq.trained {
		return nil, errPQNotTrained
	}
	table := make([]float32, pq.m*pq.kCodes)
	for m := 0; m < pq.m; m++ {
		sub := query[m*pq.subDim : (m+1)*pq.subDim]
		base := m * pq.kCodes * pq.subDim
		for c := 0; c < pq.kCodes; c++ {
			centroid := pq.codebooks[base+c*pq.subDim : base+(c+1)*pq.subDim]
			table[m*pq.kCodes+c] = pq.kernels.SquaredL2(sub, centroid)
		}
	}
	return table, nil
}

// adcDistance sums the table contributions selected by the codes.
func (pq *productQuantizer) adcDistance(table []float32, codes []byte) float32 {
	var sum float32
	for m, c := range codes {
		sum += table[m*pq.kCodes+int(c)]
	}
	return sum
}
