package codecs

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sync"

	"github.com/kyuff/docflow"
)

func NewJSON() *JSON {
	return &JSON{
		content: make(map[contentKey]reflect.Type),
	}
}

// JSON encodes and decodes event Content as JSON. Content shapes must be
// registered per aggregateType before a stream holding them is decoded.
type JSON struct {
	mux     sync.RWMutex
	content map[contentKey]reflect.Type
}

type contentKey struct {
	aggregateType string
	contentName   string
}

func (j *JSON) Encode(event docflow.Event) ([]byte, error) {
	return json.Marshal(event.Content)
}

func (j *JSON) Decode(aggregateType, contentName string, b []byte) (docflow.Content, error) {
	key := contentKey{
		aggregateType: aggregateType,
		contentName:   contentName,
	}
	j.mux.RLock()
	tp, ok := j.content[key]
	j.mux.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown content type %s for aggregate type %s", contentName, aggregateType)
	}
	value := reflect.New(tp)
	err := json.Unmarshal(b, value.Interface())
	if err != nil {
		return nil, err
	}

	return value.Elem().Interface().(docflow.Content), nil
}

func (j *JSON) Register(aggregateType string, contentTypes ...docflow.Content) error {
	j.mux.Lock()
	defer j.mux.Unlock()
	for _, contentType := range contentTypes {
		key := contentKey{
			aggregateType: aggregateType,
			contentName:   contentType.EventName(),
		}
		j.content[key] = reflect.TypeOf(contentType)
	}

	return nil
}
