package sdk

// Version is the published SDK version.
// 0.3.0: Gateway hooks are an explicit ordered pipeline (WithRequestHook/WithResponseHook).
// 0.2.0: SessionProvider owns session state; 401 responses expire the session.
const Version = "0.3.0"
