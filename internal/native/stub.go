package native

// Unsupported is an API whose every entry point is missing. It is the call
// surface on platforms without rasapi32.
type Unsupported struct{}

var _ API = Unsupported{}

func (Unsupported) Dial(*Buffer, string, *Buffer, uintptr, DialNotifier, *Handle) ResultCode {
	return ErrorProcNotFound
}
func (Unsupported) HangUp(Handle) ResultCode                    { return ErrorProcNotFound }
func (Unsupported) GetConnectStatus(Handle, *Buffer) ResultCode { return ErrorProcNotFound }
func (Unsupported) EnumConnections(*Buffer, *uint32, *uint32) ResultCode {
	return ErrorProcNotFound
}
func (Unsupported) EnumDevices(*Buffer, *uint32, *uint32) ResultCode { return ErrorProcNotFound }
func (Unsupported) EnumEntries(string, *Buffer, *uint32, *uint32) ResultCode {
	return ErrorProcNotFound
}
func (Unsupported) GetEntryProperties(string, string, *Buffer, *uint32) ResultCode {
	return ErrorProcNotFound
}
func (Unsupported) SetEntryProperties(string, string, *Buffer, uint32) ResultCode {
	return ErrorProcNotFound
}
func (Unsupported) ValidateEntryName(string, string) ResultCode   { return ErrorProcNotFound }
func (Unsupported) DeleteEntry(string, string) ResultCode         { return ErrorProcNotFound }
func (Unsupported) RenameEntry(string, string, string) ResultCode { return ErrorProcNotFound }
func (Unsupported) GetSubEntryProperties(string, string, uint32, *Buffer, *uint32) ResultCode {
	return ErrorProcNotFound
}
func (Unsupported) SetSubEntryProperties(string, string, uint32, *Buffer, uint32) ResultCode {
	return ErrorProcNotFound
}
func (Unsupported) GetCredentials(string, string, *Buffer) ResultCode { return ErrorProcNotFound }
func (Unsupported) SetCredentials(string, string, *Buffer, bool) ResultCode {
	return ErrorProcNotFound
}
func (Unsupported) GetEntryDialParams(string, *Buffer, *bool) ResultCode { return ErrorProcNotFound }
func (Unsupported) SetEntryDialParams(string, *Buffer, bool) ResultCode  { return ErrorProcNotFound }
func (Unsupported) GetSubEntryHandle(Handle, uint32, *Handle) ResultCode { return ErrorProcNotFound }
func (Unsupported) GetConnectionStatistics(Handle, *Buffer) ResultCode   { return ErrorProcNotFound }
func (Unsupported) ClearConnectionStatistics(Handle) ResultCode          { return ErrorProcNotFound }
func (Unsupported) GetLinkStatistics(Handle, uint32, *Buffer) ResultCode {
	return ErrorProcNotFound
}
func (Unsupported) ClearLinkStatistics(Handle, uint32) ResultCode { return ErrorProcNotFound }
func (Unsupported) GetProjectionInfo(Handle, uint32, *Buffer, *uint32) ResultCode {
	return ErrorProcNotFound
}
func (Unsupported) GetProjectionInfoEx(Handle, *Buffer, *uint32) ResultCode {
	return ErrorProcNotFound
}
func (Unsupported) GetCountryInfo(*Buffer, *uint32) ResultCode { return ErrorProcNotFound }
func (Unsupported) GetErrorString(uint32, *Buffer) ResultCode  { return ErrorProcNotFound }
