package phybun

import (
	"github.com/apex/log"
	"github.com/materials-commons/mcbun/pkg/mcdb/mcmodel"
	"github.com/materials-commons/mcbun/pkg/mcpath"
)

// MemberSelector decides which data objects of a collection walk are bundled.
// Objects that already have a bundled replica, live in a trash or bundle
// collection, or have no good replica on the source resource are skipped.
type MemberSelector struct {
	// SrcResource restricts members to replicas on one resource. Empty
	// accepts any good replica.
	SrcResource string
	Skipped     int
}

func NewMemberSelector(srcResource string) *MemberSelector {
	return &MemberSelector{SrcResource: srcResource}
}

// Select returns the members in walk order.
func (s *MemberSelector) Select(objs []mcmodel.DataObject) []Member {
	var members []Member
	for _, obj := range objs {
		if m, ok := s.selectObject(obj); ok {
			members = append(members, m)
			continue
		}
		s.Skipped++
	}

	return members
}

func (s *MemberSelector) selectObject(obj mcmodel.DataObject) (Member, bool) {
	if obj.IsBundled() {
		log.Debugf("Skipping %s: already bundled", obj.Path)
		return Member{}, false
	}

	if mcpath.IsTrashOrBundle(obj.Path) {
		return Member{}, false
	}

	replica := obj.GoodReplica(s.SrcResource)
	if replica == nil {
		log.Debugf("Skipping %s: no good replica on '%s'", obj.Path, s.SrcResource)
		return Member{}, false
	}

	return Member{DataID: obj.ID, Path: obj.Path, Size: replica.Size, SrcPhyPath: replica.PhyPath}, true
}
