package handler

import "context"

type ContextKey string

var (
	RoleCtxKey      ContextKey = "role"
	SubCtxKey       ContextKey = "sub"
	RequestIDCtxKey ContextKey = "requestID"
	MyInfoCtx       ContextKey = "myInfo"
	UserInfoCtx     ContextKey = "userInfo"
	DoctorCtx       ContextKey = "doctor"
	ServiceCtx      ContextKey = "service"
	AppointmentCtx  ContextKey = "appointmentID"
)

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDCtxKey).(string)
	return id
}
