// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package output

import (
	"fmt"
	"io"
	"os"
	"reflect"
	"sort"

	"github.com/tfctl/kmsctl/internal/log"
)

// schemaTag is a jsonapi struct tag discovered for --schema.
type schemaTag struct {
	Kind     string
	Name     string
	Encoding string
}

// maxSchemaDepth limits how far nested structs are walked.
const maxSchemaDepth = 1

// DumpSchema writes the sorted attribute names of typ, which may be a struct
// or a pointer to one, to w. If w is nil, os.Stdout is used.
func DumpSchema(prefix string, typ reflect.Type, w io.Writer) {
	if w == nil {
		w = os.Stdout
	}
	for typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}

	fmt.Fprintln(w,
		`Attributes available to the --attrs, --filter and --sort flags. The
primary key is addressed as .id. Use --output=raw to see the full payload.`)
	fmt.Fprintln(w, "")

	if typ.Kind() != reflect.Struct {
		log.Debugf("schema: not a struct: %s", typ)
		return
	}

	tags := dumpSchemaWalker(prefix, typ, 0)
	if len(tags) == 0 {
		log.Debugf("schema: no tags found for type: %s", typ.Name())
		return
	}

	sort.Slice(tags, func(i, j int) bool {
		return tags[i].Name < tags[j].Name
	})

	for _, tag := range tags {
		fmt.Fprintln(w, tag.Name)
	}
}

// dumpSchemaWalker collects the attr tags of typ, descending into struct
// valued attrs.
func dumpSchemaWalker(holder string, typ reflect.Type, depth int) []schemaTag {
	tags := make([]schemaTag, 0)

	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)

		tagValue, ok := field.Tag.Lookup("jsonapi")
		if !ok {
			continue
		}

		tag := NewTag(holder, tagValue)
		if tag.Kind != "attr" {
			continue
		}
		tags = append(tags, tag)

		if depth >= maxSchemaDepth {
			continue
		}

		ft := field.Type
		if ft.Kind() == reflect.Ptr {
			ft = ft.Elem()
		}
		if ft.Kind() == reflect.Struct {
			tags = append(tags, dumpSchemaWalker(tag.Name, ft, depth+1)...)
		}
	}

	return tags
}
