package util

import (
	"fmt"
	"regexp"
	"strings"
)

var collectionNameRegexp = regexp.MustCompile("[^a-z0-9_-]+")

const maxCollectionNameLength = 255

// CollectionName builds the vector collection for the review index from a
// configured base name and the embedder model. Vectors of different embedders
// differ in size, so each model gets its own collection.
func CollectionName(base, embedderModel string) string {
	safeBase := collectionNameRegexp.ReplaceAllString(strings.ToLower(strings.TrimSpace(base)), "")
	if safeBase == "" {
		safeBase = "reviews"
	}

	// "nomic-embed-text:latest" and "nomic-embed-text" share a collection.
	model, _, _ := strings.Cut(embedderModel, ":")
	safeModel := collectionNameRegexp.ReplaceAllString(strings.ToLower(strings.ReplaceAll(model, "/", "-")), "")

	name := safeBase
	if safeModel != "" {
		name = fmt.Sprintf("%s-%s", safeBase, safeModel)
	}
	if len(name) > maxCollectionNameLength {
		name = name[:maxCollectionNameLength]
	}
	return name
}
