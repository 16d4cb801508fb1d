package algolia

import (
	"strconv"
	"time"

	"github.com/letmevibethatforyou/postsearch"
)

const (
	objectIDKey = "objectID"
	// dateTimestampKey holds the post date as unix seconds so the index can
	// rank and filter on it numerically.
	dateTimestampKey = "date_timestamp"
)

// ToObject converts a post into an Algolia record.
func ToObject(post postsearch.Post) map[string]interface{} {
	object := map[string]interface{}{
		objectIDKey:               post.ID,
		postsearch.FieldTitle:     post.Title,
		postsearch.FieldContent:   post.Content,
		postsearch.FieldExcerpt:   post.Excerpt,
		postsearch.FieldPermalink: post.Permalink,
		postsearch.FieldPostType:  post.PostType,
		postsearch.FieldStatus:    post.Status,
	}
	if !post.Date.IsZero() {
		object[postsearch.FieldDate] = post.Date.UTC().Format(time.RFC3339)
		object[dateTimestampKey] = post.Date.Unix()
	}
	return object
}

// postFromHit converts a search hit back into a post. Missing or mistyped
// attributes are left empty.
func postFromHit(hit map[string]interface{}) postsearch.Post {
	str := func(key string) string {
		s, _ := hit[key].(string)
		return s
	}

	post := postsearch.Post{
		ID:        str(objectIDKey),
		Title:     str(postsearch.FieldTitle),
		Content:   str(postsearch.FieldContent),
		Excerpt:   str(postsearch.FieldExcerpt),
		Permalink: str(postsearch.FieldPermalink),
		PostType:  str(postsearch.FieldPostType),
		Status:    str(postsearch.FieldStatus),
	}

	if t, err := time.Parse(time.RFC3339, str(postsearch.FieldDate)); err == nil {
		post.Date = t
	} else {
		switch ts := hit[dateTimestampKey].(type) {
		case float64:
			post.Date = time.Unix(int64(ts), 0).UTC()
		case string:
			if n, err := strconv.ParseInt(ts, 10, 64); err == nil {
				post.Date = time.Unix(n, 0).UTC()
			}
		}
	}

	return post
}
