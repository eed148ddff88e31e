package gateway

import (
	"net/url"
	"strings"
)

// signPath returns "/object/sign/{bucket}/{key}" with every path segment escaped.
func signPath(bucket, objectKey string) string {
	segs := strings.Split(objectKey, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return "/object/sign/" + url.PathEscape(bucket) + "/" + strings.Join(segs, "/")
}
