package file

import (
	"fmt"
	"net/http"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-getter"
	"github.com/wagoodman/go-progress"

	"github.com/itsmeakapa/secref/internal/log"
)

type Getter interface {
	// GetFile downloads the given URL into the given path. The URL must reference a single file.
	GetFile(dst, src string, monitor ...*progress.Manual) error
}

type hashiGoGetter struct {
	httpGetter getter.HttpGetter
}

// NewGetter creates and returns a new Getter. Providing an http.Client is optional. If one is provided,
// it will be used for all HTTP(S) getting; otherwise, go-getter's default getters will be used.
func NewGetter(httpClient *http.Client) Getter {
	return &hashiGoGetter{
		httpGetter: getter.HttpGetter{
			Client: httpClient,
		},
	}
}

func NewDefaultGetter() Getter {
	return NewGetter(cleanhttp.DefaultClient())
}

func (g hashiGoGetter) GetFile(dst, src string, monitors ...*progress.Manual) error {
	if len(monitors) > 1 {
		return fmt.Errorf("multiple monitors provided, which is not allowed")
	}

	log.WithFields("url", src, "to", dst).Debug("downloading file")

	// note: retries are owned by the caller (the provider retry policy), not by the getter,
	// otherwise transient failures would be retried at two layers
	return getterClient(dst, src, g.httpGetter, monitors).Get()
}

func getterClient(dst, src string, httpGetter getter.HttpGetter, monitors []*progress.Manual) *getter.Client {
	client := &getter.Client{
		Src:  src,
		Dst:  dst,
		Mode: getter.ClientModeFile,
		Getters: map[string]getter.Getter{
			"http":  &httpGetter,
			"https": &httpGetter,
			"file":  new(getter.FileGetter),
		},
		Options: mapToGetterClientOptions(monitors),
	}

	return client
}

func withProgress(monitor *progress.Manual) func(client *getter.Client) error {
	return getter.WithProgress(
		&progressAdapter{monitor: monitor},
	)
}

func mapToGetterClientOptions(monitors []*progress.Manual) []getter.ClientOption {
	var result []getter.ClientOption
	for _, monitor := range monitors {
		result = append(result, withProgress(monitor))
	}
	return result
}
