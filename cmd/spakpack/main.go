// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Command spakpack bundles compiled SPIR-V kernels into a shader pack.
// Entries are named after the input file base names.
package main

import (
	"flag"
	"io/ioutil"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"

	"github.com/devblok/gpu/utility/spak"
)

var output = flag.String("o", "kernels.spak", "output pack file")

func main() {
	flag.Parse()
	if flag.NArg() == 0 {
		log.Fatal("no kernels given")
	}

	builder := spak.NewBuilder()
	for _, name := range flag.Args() {
		code, err := ioutil.ReadFile(name)
		if err != nil {
			log.Fatal(err)
		}
		if err := builder.Add(filepath.Base(name), code); err != nil {
			log.Fatal(err)
		}
	}

	file, err := os.Create(*output)
	if err != nil {
		log.Fatal(err)
	}
	defer file.Close()

	if _, err := builder.WriteTo(file); err != nil {
		log.Fatal(err)
	}
	log.WithField("entries", flag.NArg()).Infof("wrote %s", *output)
}
