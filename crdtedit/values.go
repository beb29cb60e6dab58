package crdtedit

import (
	"github.com/luvjson/crdtfront/common"
	"github.com/luvjson/crdtfront/crdt"
	"github.com/luvjson/crdtfront/crdtpatch"
)

// resolveTarget inspects the node at obj and, if it is a list, resolves
// key (an ElemID string) to a visual index. Map fields are addressed by
// key directly and carry no index.
func resolveTarget(cache crdt.Cache, obj common.ObjectID, key string) (isList bool, node crdt.Node, index int, err error) {
	n, err := cache.Get(obj)
	if err != nil {
		return false, nil, 0, err
	}
	switch t := n.(type) {
	case *crdt.MapNode:
		return false, t, 0, nil
	case *crdt.ListNode:
		elemID, perr := common.ParseElemID(key)
		if perr != nil {
			return true, t, 0, perr
		}
		idx, ok := t.IndexOf(elemID)
		if !ok {
			return true, t, 0, common.ErrIndexOutOfRange{ID: obj, Index: -1, Len: t.Len()}
		}
		return true, t, idx, nil
	default:
		return false, nil, 0, common.ErrWrongNodeType{ID: obj, Expected: "map or list", Got: string(n.Kind())}
	}
}

func getValueAt(cache crdt.Cache, obj common.ObjectID, key string) (crdt.Value, error) {
	isList, node, idx, err := resolveTarget(cache, obj, key)
	if err != nil {
		return nil, err
	}
	if isList {
		v, _, err := node.(*crdt.ListNode).At(idx)
		return v, err
	}
	m := node.(*crdt.MapNode)
	v, ok := m.Get(key)
	if !ok {
		return nil, common.ErrFieldNotFound{Obj: obj, Key: key}
	}
	return v, nil
}

func setValueAt(cache crdt.Cache, obj common.ObjectID, key string, v crdt.Value) (crdt.Cache, error) {
	isList, node, idx, err := resolveTarget(cache, obj, key)
	if err != nil {
		return cache, err
	}
	if isList {
		newList, err := node.(*crdt.ListNode).WithElementAt(idx, v)
		if err != nil {
			return cache, err
		}
		return cache.Put(obj, newList), nil
	}
	m := node.(*crdt.MapNode)
	return cache.Put(obj, m.WithField(key, v)), nil
}

// deleteValueAt removes obj.key and reports whether the removed value was
// an ObjectRef (and if so, to which child), so callers can clean up the
// inbound map.
func deleteValueAt(cache crdt.Cache, obj common.ObjectID, key string) (crdt.Cache, common.ObjectID, bool, error) {
	isList, node, idx, err := resolveTarget(cache, obj, key)
	if err != nil {
		return cache, "", false, err
	}
	if isList {
		list := node.(*crdt.ListNode)
		old, _, _ := list.At(idx)
		newList, err := list.WithoutElementAt(idx)
		if err != nil {
			return cache, "", false, err
		}
		if ref, ok := old.(crdt.ObjectRef); ok {
			return cache.Put(obj, newList), ref.ID, true, nil
		}
		return cache.Put(obj, newList), "", false, nil
	}
	m := node.(*crdt.MapNode)
	old, _ := m.Get(key)
	newM := m.WithoutField(key)
	if ref, ok := old.(crdt.ObjectRef); ok {
		return cache.Put(obj, newM), ref.ID, true, nil
	}
	return cache.Put(obj, newM), "", false, nil
}

// valueFromOp coerces a wire-shaped (value, datatype) pair into a crdt.Value.
func valueFromOp(raw any, datatype crdtpatch.Datatype) (crdt.Value, error) {
	switch datatype {
	case crdtpatch.DatatypeTimestamp:
		ms, err := toInt64(raw)
		if err != nil {
			return nil, err
		}
		return crdt.TimestampFromMillis(ms), nil
	case crdtpatch.DatatypeCounter:
		n, err := toInt64(raw)
		if err != nil {
			return nil, err
		}
		return crdt.NewCounter(n), nil
	default:
		if ref, ok := raw.(common.ObjectID); ok {
			return crdt.NewObjectRef(ref), nil
		}
		return crdt.NewPrimitive(raw), nil
	}
}

func opDel(obj common.ObjectID, key string) crdtpatch.Op {
	return crdtpatch.Op{Action: crdtpatch.ActionDel, Obj: obj, Key: key}
}

func toInt64(raw any) (int64, error) {
	switch v := raw.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case uint64:
		return int64(v), nil
	case float64:
		return int64(v), nil
	case float32:
		return int64(v), nil
	default:
		return 0, common.ErrMalformedPatch{Reason: "expected a number"}
	}
}
