package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/carbocation/pfx"
	"github.com/carbocation/probamatrix"
)

func main() {
	path := flag.String("index", "", "Filename (or gs:// path) of the matrix index to process")
	branch := flag.Int("branch", -1, "Branch (internal node) id to report. If negative, every branch is reported")
	maxSites := flag.Int("sites", 10, "Number of sites to print per branch. If zero or negative, every site is printed")
	flag.Parse()

	if *path == "" {
		flag.PrintDefaults()
		log.Fatalln("No matrix index given")
	}

	if strings.HasPrefix(*path, "~/") {
		usr, err := user.Current()
		if err != nil {
			log.Fatalln(pfx.Err(err))
		}
		*path = filepath.Join(usr.HomeDir, (*path)[2:])
	}

	idx, cleanup, err := probamatrix.OpenIndexMaybeGS(context.Background(), *path)
	if err != nil {
		log.Fatalln(err)
	}
	defer cleanup()
	defer idx.Close()

	m, err := idx.Load()
	if err != nil {
		log.Fatalln(err)
	}

	log.Printf("Loaded %d branches, %d sites, %d variants (sorted: %v)\n", m.NumBranches(), m.NumSites(), m.NumVariants(), m.Sorted())

	if !m.Sorted() {
		m.Sort()
	}

	branches := m.BranchIDs()
	if *branch >= 0 {
		branches = []int{*branch}
	}

	for _, id := range branches {
		variants, probs, err := m.MostProbable(id)
		if err != nil {
			log.Fatalln(err)
		}

		for site := range variants {
			if *maxSites > 0 && site >= *maxSites {
				break
			}
			fmt.Printf("%d\t%d\t%d\t%.6f\n", id, site, variants[site], probs[site])
		}
	}
}
