package main

import (
	"flag"
	"fmt"
	"log"
	"os/user"
	"path/filepath"
	"strings"
	"time"

	"github.com/carbocation/pfx"
	"github.com/carbocation/probamatrix"
)

func main() {
	path := flag.String("index", "", "Filename of the matrix index to process")
	flag.Parse()

	if strings.HasPrefix(*path, "~/") {
		usr, err := user.Current()
		if err != nil {
			log.Fatalln(pfx.Err(err))
		}
		*path = filepath.Join(usr.HomeDir, (*path)[2:])
	}

	log.Println("Opening matrix index:", *path, "with driver", probamatrix.WhichSQLiteDriver())
	idx, err := probamatrix.OpenIndex(*path)
	if err != nil {
		log.Fatalln(err)
	}
	defer idx.Close()

	nBranches, nSites, nVariants, err := idx.Dimensions()
	if err != nil {
		log.Println(err)
	} else {
		log.Printf("Index Metadata: %d branches x %d sites x %d variants, sorted: %v, %s, created %s\n",
			nBranches, nSites, nVariants, idx.Metadata.Sorted, idx.Metadata.Compression,
			time.Time(idx.Metadata.IndexCreationTime).Format(time.RFC3339))
	}

	br := idx.NewBranchReader()
	defer br.Close()
	for i := 0; ; i++ {
		id, entry := br.Read()
		if entry == nil {
			break
		}

		if i%30 == 0 {
			fmt.Printf("%d) branch %d: %d sites\n", i, id, len(entry))
			if len(entry) > 0 {
				fmt.Printf("\tsite 0: %+v\n", entry[0])
			}
		}
	}

	if br.Error() != nil {
		log.Println("BR error:", br.Error())
	}

	log.Println("Saw", br.BranchesSeen, "branches")
}
