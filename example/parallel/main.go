package main

import (
	"flag"
	"log"
	"os/user"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/carbocation/pfx"
	"github.com/carbocation/probamatrix"
)

func main() {
	path := flag.String("index", "", "Filename of the matrix index to process")
	flag.Parse()

	if *path == "" {
		flag.PrintDefaults()
		log.Fatalln("No matrix index found")
	}

	if strings.HasPrefix(*path, "~/") {
		usr, err := user.Current()
		if err != nil {
			log.Fatalln(pfx.Err(err))
		}
		*path = filepath.Join(usr.HomeDir, (*path)[2:])
	}

	idx, err := probamatrix.OpenIndex(*path)
	if err != nil {
		log.Fatalln(err)
	}
	defer idx.Close()

	var branches []int
	if err := idx.DB.Select(&branches, "SELECT branch_id FROM Branch ORDER BY branch_id ASC"); err != nil {
		log.Fatalln(err)
	}

	// Prep the readers
	work := make(chan int)
	output := make(chan Confidence)
	var wg sync.WaitGroup

	log.Println("Launching", runtime.NumCPU(), "workers")
	for i := 0; i < runtime.NumCPU(); i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			Worker(workerID, *path, work, output)
		}(i)
	}

	go func() {
		for _, id := range branches {
			work <- id
		}
		close(work)
		wg.Wait()
		close(output)
	}()

	accumulator := Confidence{}
	for o := range output {
		accumulator.Sites += o.Sites
		accumulator.SumTop += o.SumTop
		accumulator.Confident += o.Confident
	}

	log.Println("Final accumulated stats over", len(branches), "branches")
	log.Printf("%+v mean top posterior: %.4f\n", accumulator, accumulator.Mean())
}

// Confidence summarizes how sure the reconstruction is of its most probable
// ancestral states.
type Confidence struct {
	Sites     int
	SumTop    float64
	Confident int // Sites whose top posterior is at least 0.95
}

func (c Confidence) Mean() float64 {
	if c.Sites == 0 {
		return 0
	}
	return c.SumTop / float64(c.Sites)
}

// Each worker maintains its own index connection and its own small matrix.
func Worker(workerID int, path string, work <-chan int, output chan<- Confidence) {
	idx, err := probamatrix.OpenIndex(path)
	if err != nil {
		log.Printf("Worker %d exited: %v\n", workerID, err)
		for range work {
		}
		return
	}
	defer idx.Close()

	for id := range work {
		entry, err := idx.ReadBranch(id)
		if err != nil {
			log.Fatalln(err)
		}

		m := probamatrix.New()
		m.AddBranchEntry(id, entry)
		m.Sort()

		_, probs, err := m.MostProbable(id)
		if err != nil {
			log.Fatalln(err)
		}

		c := Confidence{Sites: len(probs)}
		for _, p := range probs {
			c.SumTop += float64(p)
			if p >= 0.95 {
				c.Confident++
			}
		}

		output <- c
	}
}
