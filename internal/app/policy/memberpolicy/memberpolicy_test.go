package memberpolicy_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/rotaractportal/internal/app/policy/memberpolicy"
	"github.com/dalemusser/rotaractportal/internal/domain/models"
	"github.com/dalemusser/rotaractportal/internal/testutil"
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func request(u testutil.TestUser) *http.Request {
	return testutil.WithUser(httptest.NewRequest(http.MethodPatch, "/", nil), u)
}

func TestCanChangeStatus(t *testing.T) {
	board := testutil.BoardUser()
	president := testutil.PresidentUser()
	member := models.Member{ID: primitive.NewObjectID(), Role: models.RoleMember}
	pres := models.Member{ID: president.OID(), Role: models.RolePresident}

	assert.NoError(t, memberpolicy.CanChangeStatus(request(board), member))
	assert.ErrorIs(t, memberpolicy.CanChangeStatus(request(testutil.MemberUser()), member), memberpolicy.ErrOfficersOnly)
	assert.ErrorIs(t, memberpolicy.CanChangeStatus(request(board), pres), memberpolicy.ErrOutranked)
	assert.ErrorIs(t, memberpolicy.CanChangeStatus(request(president), pres), memberpolicy.ErrSelf)
	assert.ErrorIs(t, memberpolicy.CanChangeStatus(request(board), models.Member{ID: board.OID()}), memberpolicy.ErrSelf)
}

func TestCanChangeRole(t *testing.T) {
	president := testutil.PresidentUser()
	target := models.Member{ID: primitive.NewObjectID(), Role: models.RoleMember}

	assert.NoError(t, memberpolicy.CanChangeRole(request(president), target))
	assert.ErrorIs(t, memberpolicy.CanChangeRole(request(testutil.TreasurerUser()), target), memberpolicy.ErrPresidentOnly)
	assert.ErrorIs(t, memberpolicy.CanChangeRole(request(president), models.Member{ID: president.OID()}), memberpolicy.ErrSelf)
}
