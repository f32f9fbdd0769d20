// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package tracy

import (
	"strconv"
)

// ResponseType is the discriminant of a record in the server's stream.
type ResponseType uint8

// Response types. Only a subset is emitted by this package; the rest are
// listed to keep the values aligned with the protocol.
const (
	ResponseZoneText ResponseType = iota
	ResponseZoneName
	ResponseMessage
	ResponseMessageColor
	ResponseMessageCallstack
	ResponseMessageColorCallstack
	ResponseMessageAppInfo
	ResponseZoneBeginAllocSrcLoc
	ResponseZoneBeginAllocSrcLocCallstack
	ResponseCallstackSerial
	ResponseCallstack
	ResponseCallstackAlloc
	ResponseCallstackSample
	ResponseCallstackSampleContextSwitch
	ResponseFrameImage
	ResponseZoneBegin
	ResponseZoneBeginCallstack
	ResponseZoneEnd
	ResponseLockWait
	ResponseLockObtain
	ResponseLockRelease
	ResponseLockSharedWait
	ResponseLockSharedObtain
	ResponseLockSharedRelease
	ResponseLockName
	ResponseMemAlloc
	ResponseMemAllocNamed
	ResponseMemFree
	ResponseMemFreeNamed
	ResponseMemAllocCallstack
	ResponseMemAllocCallstackNamed
	ResponseMemFreeCallstack
	ResponseMemFreeCallstackNamed
	ResponseGpuZoneBegin
	ResponseGpuZoneBeginCallstack
	ResponseGpuZoneBeginAllocSrcLoc
	ResponseGpuZoneBeginAllocSrcLocCallstack
	ResponseGpuZoneEnd
	ResponseGpuZoneBeginSerial
	ResponseGpuZoneBeginCallstackSerial
	ResponseGpuZoneBeginAllocSrcLocSerial
	ResponseGpuZoneBeginAllocSrcLocCallstackSerial
	ResponseGpuZoneEndSerial
	ResponsePlotDataInt
	ResponsePlotDataFloat
	ResponsePlotDataDouble
	ResponseContextSwitch
	ResponseThreadWakeup
	ResponseGpuTime
	ResponseGpuContextName
	ResponseCallstackFrameSize
	ResponseSymbolInformation
	ResponseExternalNameMetadata
	ResponseSymbolCodeMetadata
	ResponseSourceCodeMetadata
	ResponseFiberEnter
	ResponseFiberLeave
	ResponseTerminate
	ResponseKeepAlive
	ResponseThreadContext
	ResponseGpuCalibration
	ResponseCrash
	ResponseCrashReport
	ResponseZoneValidation
	ResponseZoneColor
	ResponseZoneValue
	ResponseFrameMarkMsg
	ResponseFrameMarkMsgStart
	ResponseFrameMarkMsgEnd
	ResponseFrameVsync
	ResponseSourceLocation
	ResponseLockAnnounce
	ResponseLockTerminate
	ResponseLockMark
	ResponseMessageLiteral
	ResponseMessageLiteralColor
	ResponseMessageLiteralCallstack
	ResponseMessageLiteralColorCallstack
	ResponseGpuNewContext
	ResponseCallstackFrame
	ResponseSysTimeReport
	ResponseSysPowerReport
	ResponseTidToPid
	ResponseHwSampleCpuCycle
	ResponseHwSampleInstructionRetired
	ResponseHwSampleCacheReference
	ResponseHwSampleCacheMiss
	ResponseHwSampleBranchRetired
	ResponseHwSampleBranchMiss
	ResponsePlotConfig
	ResponseParamSetup
	ResponseAckServerQueryNoop
	ResponseAckSourceCodeNotAvailable
	ResponseAckSymbolCodeNotAvailable
	ResponseCpuTopology
	ResponseSingleStringData
	ResponseSecondStringData
	ResponseMemNamePayload
	ResponseStringData
	ResponseThreadName
	ResponsePlotName
	ResponseSourceLocationPayload
	ResponseCallstackPayload
	ResponseCallstackAllocPayload
	ResponseFrameName
	ResponseFrameImageData
	ResponseExternalName
	ResponseExternalThreadName
	ResponseSymbolCode
	ResponseSourceCode
	ResponseFiberName

	numResponseTypes
)

var responseTypeNames = [...]string{
	"ZoneText",
	"ZoneName",
	"Message",
	"MessageColor",
	"MessageCallstack",
	"MessageColorCallstack",
	"MessageAppInfo",
	"ZoneBeginAllocSrcLoc",
	"ZoneBeginAllocSrcLocCallstack",
	"CallstackSerial",
	"Callstack",
	"CallstackAlloc",
	"CallstackSample",
	"CallstackSampleContextSwitch",
	"FrameImage",
	"ZoneBegin",
	"ZoneBeginCallstack",
	"ZoneEnd",
	"LockWait",
	"LockObtain",
	"LockRelease",
	"LockSharedWait",
	"LockSharedObtain",
	"LockSharedRelease",
	"LockName",
	"MemAlloc",
	"MemAllocNamed",
	"MemFree",
	"MemFreeNamed",
	"MemAllocCallstack",
	"MemAllocCallstackNamed",
	"MemFreeCallstack",
	"MemFreeCallstackNamed",
	"GpuZoneBegin",
	"GpuZoneBeginCallstack",
	"GpuZoneBeginAllocSrcLoc",
	"GpuZoneBeginAllocSrcLocCallstack",
	"GpuZoneEnd",
	"GpuZoneBeginSerial",
	"GpuZoneBeginCallstackSerial",
	"GpuZoneBeginAllocSrcLocSerial",
	"GpuZoneBeginAllocSrcLocCallstackSerial",
	"GpuZoneEndSerial",
	"PlotDataInt",
	"PlotDataFloat",
	"PlotDataDouble",
	"ContextSwitch",
	"ThreadWakeup",
	"GpuTime",
	"GpuContextName",
	"CallstackFrameSize",
	"SymbolInformation",
	"ExternalNameMetadata",
	"SymbolCodeMetadata",
	"SourceCodeMetadata",
	"FiberEnter",
	"FiberLeave",
	"Terminate",
	"KeepAlive",
	"ThreadContext",
	"GpuCalibration",
	"Crash",
	"CrashReport",
	"ZoneValidation",
	"ZoneColor",
	"ZoneValue",
	"FrameMarkMsg",
	"FrameMarkMsgStart",
	"FrameMarkMsgEnd",
	"FrameVsync",
	"SourceLocation",
	"LockAnnounce",
	"LockTerminate",
	"LockMark",
	"MessageLiteral",
	"MessageLiteralColor",
	"MessageLiteralCallstack",
	"MessageLiteralColorCallstack",
	"GpuNewContext",
	"CallstackFrame",
	"SysTimeReport",
	"SysPowerReport",
	"TidToPid",
	"HwSampleCpuCycle",
	"HwSampleInstructionRetired",
	"HwSampleCacheReference",
	"HwSampleCacheMiss",
	"HwSampleBranchRetired",
	"HwSampleBranchMiss",
	"PlotConfig",
	"ParamSetup",
	"AckServerQueryNoop",
	"AckSourceCodeNotAvailable",
	"AckSymbolCodeNotAvailable",
	"CpuTopology",
	"SingleStringData",
	"SecondStringData",
	"MemNamePayload",
	"StringData",
	"ThreadName",
	"PlotName",
	"SourceLocationPayload",
	"CallstackPayload",
	"CallstackAllocPayload",
	"FrameName",
	"FrameImageData",
	"ExternalName",
	"ExternalThreadName",
	"SymbolCode",
	"SourceCode",
	"FiberName",
}

func (rt ResponseType) String() string {
	if rt < numResponseTypes {
		return responseTypeNames[rt]
	}
	return "ResponseType(" + strconv.Itoa(int(rt)) + ")"
}
