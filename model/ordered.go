package model

import (
	"bytes"
	"encoding/json"
)

// OrderedMap 保留插入顺序的映射，导出 JSON 时按插入顺序输出键。
// 覆盖已存在的键不改变其位置。
type OrderedMap[K ~string, V any] struct {
	keys   []K
	values map[K]V
}

func NewOrderedMap[K ~string, V any]() *OrderedMap[K, V] {
	return &OrderedMap[K, V]{values: make(map[K]V)}
}

func (o *OrderedMap[K, V]) Set(key K, value V) {
	if _, ok := o.values[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.values[key] = value
}

func (o *OrderedMap[K, V]) Get(key K) (V, bool) {
	v, ok := o.values[key]
	return v, ok
}

func (o *OrderedMap[K, V]) Has(key K) bool {
	_, ok := o.values[key]
	return ok
}

// Delete 删除键并保持剩余键的相对顺序
func (o *OrderedMap[K, V]) Delete(key K) {
	if _, ok := o.values[key]; !ok {
		return
	}
	delete(o.values, key)
	for i, k := range o.keys {
		if k == key {
			o.keys = append(o.keys[:i], o.keys[i+1:]...)
			break
		}
	}
}

func (o *OrderedMap[K, V]) Len() int { return len(o.keys) }

// Keys 返回键的副本
func (o *OrderedMap[K, V]) Keys() []K {
	out := make([]K, len(o.keys))
	copy(out, o.keys)
	return out
}

func (o *OrderedMap[K, V]) Each(fn func(key K, value V)) {
	for _, k := range o.keys {
		fn(k, o.values[k])
	}
}

func (o *OrderedMap[K, V]) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(string(k))
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(o.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
