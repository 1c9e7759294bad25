package annidx_test

import (
	"context"
	"fmt"
	"log"

	annidx "github.com/foundermatch/annidx"
	"github.com/foundermatch/annidx/blobstore"
)

func Example() {
	ctx := context.Background()

	m, err := annidx.New(4, annidx.WithClusterThreshold(1000))
	if err != nil {
		log.Fatal(err)
	}

	err = m.Init(ctx, [][]float32{
		{0.1, 0.2, 0.3, 0.4},
		{0.9, 0.8, 0.7, 0.6},
		{0.1, 0.2, 0.3, 0.5},
	})
	if err != nil {
		log.Fatal(err)
	}

	res, err := m.Search(ctx, [][]float32{{0.1, 0.2, 0.3, 0.4}}, 2)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(res.Positions[0])

	// Persist the index so a restarted service can pick it up again.
	store := blobstore.NewMemoryStore()
	if err := m.Save(ctx, store, "recommend/main"); err != nil {
		log.Fatal(err)
	}

	loaded, found, err := annidx.Load(ctx, store, "recommend/main", 4)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(found, loaded.Status().Count)
	// Output:
	// [0 2]
	// true 3
}
