package main

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"gitlab.com/dirk.krummacker/contact-book/internal/model"
	"gitlab.com/dirk.krummacker/contact-book/internal/persist"
	"gitlab.com/dirk.krummacker/contact-book/internal/store"
)

// searchLoops limits the number of searches, since every search scans the whole book.
const searchLoops = 1000

// Prints the mean duration in microseconds of the contact book operations for books of growing
// size. Saving and loading are measured once per book.
//
// Usage example on the command line:
// > go run main.go
func main() {
	dir, err := os.MkdirTemp("", "contacts-bench")
	if err != nil {
		fmt.Println("could not create temporary directory", err)
		panic(err)
	}
	defer os.RemoveAll(dir)

	fmt.Println()
	fmt.Println("  Elements       ADD    UPDATE    SEARCH      SAVE      LOAD    DELETE")
	fmt.Println("-----------------------------------------------------------------------")
	sizes := []int{1000, 5000, 10000, 50000}
	for _, loops := range sizes {
		book := store.New()
		path := filepath.Join(dir, fmt.Sprintf("contacts-%d.json", loops))
		fmt.Printf("%10d", loops)
		{
			// Add
			f := func(name string) {
				_, err := book.Add(model.Contact{
					Name:  name,
					Phone: "+39 999 777 555",
					Email: model.StringPtr("marcus@antonius.it"),
				})
				mustSucceed(err)
			}
			callInLoop(createRandomSliceWithNames(loops), f)
		}
		{
			// Update
			address := model.StringPtr("Via Appia 1, Roma")
			f := func(name string) {
				_, err := book.Update(name, model.Update{Address: address})
				mustSucceed(err)
			}
			callInLoop(createRandomSliceWithNames(loops), f)
		}
		{
			// Search
			f := func(name string) {
				book.Search(name)
			}
			callInLoop(createRandomSliceWithNames(min(loops, searchLoops)), f)
		}
		{
			// Save
			before := time.Now()
			mustSucceed(persist.Save(book, path))
			fmt.Printf("%10d", time.Since(before).Microseconds())
		}
		{
			// Load
			before := time.Now()
			loaded, err := persist.Load(path)
			mustSucceed(err)
			fmt.Printf("%10d", time.Since(before).Microseconds())
			if loaded.Len() != book.Len() {
				panic(fmt.Sprintf("loaded %d contacts, saved %d", loaded.Len(), book.Len()))
			}
		}
		{
			// Delete
			f := func(name string) {
				mustSucceed(book.Delete(name))
			}
			callInLoop(createRandomSliceWithNames(loops), f)
		}
		fmt.Println()
	}
}

// callInLoop calls f for every name and prints the mean duration in microseconds.
func callInLoop(names []string, f func(name string)) {
	var duration time.Duration
	for _, name := range names {
		before := time.Now()
		f(name)
		duration += time.Since(before)
	}
	fmt.Printf("%10.2f", float64(duration.Nanoseconds())/float64(len(names)*1000))
}

// createRandomSliceWithNames returns the names "Marcus Antonius 0" to "Marcus Antonius <loops-1>"
// in random order.
func createRandomSliceWithNames(loops int) []string {
	names := make([]string, 0, loops)
	for i := 0; i < loops; i++ {
		names = append(names, fmt.Sprintf("Marcus Antonius %d", i))
	}
	rand.Shuffle(len(names), func(i, j int) {
		names[i], names[j] = names[j], names[i]
	})
	return names
}

func mustSucceed(err error) {
	if err != nil {
		fmt.Println("operation failed", err)
		panic(err)
	}
}
