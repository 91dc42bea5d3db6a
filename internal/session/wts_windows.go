// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

//go:build windows

package session

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"
	"unsafe"

	xglog "github.com/ManuGH/autolock/internal/log"
	"github.com/rs/zerolog"
	"golang.org/x/sys/windows"
)

var (
	user32   = windows.NewLazySystemDLL("user32.dll")
	wtsapi32 = windows.NewLazySystemDLL("wtsapi32.dll")

	procRegisterClassExW   = user32.NewProc("RegisterClassExW")
	procCreateWindowExW    = user32.NewProc("CreateWindowExW")
	procDefWindowProcW     = user32.NewProc("DefWindowProcW")
	procDestroyWindow      = user32.NewProc("DestroyWindow")
	procGetMessageW        = user32.NewProc("GetMessageW")
	procTranslateMessage   = user32.NewProc("TranslateMessage")
	procDispatchMessageW   = user32.NewProc("DispatchMessageW")
	procPostMessageW       = user32.NewProc("PostMessageW")
	procPostQuitMessage    = user32.NewProc("PostQuitMessage")
	procWTSRegisterNotif   = wtsapi32.NewProc("WTSRegisterSessionNotification")
	procWTSUnRegisterNotif = wtsapi32.NewProc("WTSUnRegisterSessionNotification")
)

const (
	wmDestroy            = 0x0002
	wmClose              = 0x0010
	wmWTSSessionChange   = 0x02B1
	notifyForThisSession = 0
	errClassExists       = windows.Errno(1410) // ERROR_CLASS_ALREADY_EXISTS

	// HWND_MESSAGE, (HWND)-3: a message-only window.
	hwndMessage = ^uintptr(2)
)

type wndClassEx struct {
	Size       uint32
	Style      uint32
	WndProc    uintptr
	ClsExtra   int32
	WndExtra   int32
	Instance   windows.Handle
	Icon       windows.Handle
	Cursor     windows.Handle
	Background windows.Handle
	MenuName   *uint16
	ClassName  *uint16
	IconSm     windows.Handle
}

type winMsg struct {
	Hwnd    uintptr
	Message uint32
	WParam  uintptr
	LParam  uintptr
	Time    uint32
	PtX     int32
	PtY     int32
}

var (
	// windows maps message-only window handles to their subscriptions.
	wtsWindows   sync.Map
	wndProcOnce  sync.Once
	wndProcThunk uintptr
)

// WTSSource delivers WM_WTSSESSION_CHANGE notifications for this session
// through a hidden message-only window.
type WTSSource struct {
	logger zerolog.Logger
}

// NewPlatformSource returns the WTS session notification source.
func NewPlatformSource(logger zerolog.Logger) (Source, error) {
	return &WTSSource{logger: logger.With().Str(xglog.FieldComponent, "wts").Logger()}, nil
}

// Subscribe creates the notification window on a dedicated OS thread.
func (s *WTSSource) Subscribe(ctx context.Context, h Handler) (Subscription, error) {
	sub := &wtsSubscription{
		handler: h,
		ready:   make(chan error, 1),
		done:    make(chan struct{}),
	}
	go sub.run()

	if err := awaitWindow(ctx, sub.ready, sub.done, func() { _ = sub.Close() }); err != nil {
		return nil, err
	}

	s.logger.Info().Str(xglog.FieldEvent, "wts.subscribed").Msg("registered for WTS session notifications")
	return sub, nil
}

type wtsSubscription struct {
	handler Handler
	hwnd    uintptr // written before ready reports success, read only after
	ready   chan error
	done    chan struct{}
	once    sync.Once
}

func (s *wtsSubscription) run() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(s.done)

	var instance windows.Handle
	if err := windows.GetModuleHandleEx(0, nil, &instance); err != nil {
		s.ready <- fmt.Errorf("get module handle: %w", err)
		return
	}

	className, err := windows.UTF16PtrFromString("AutoLockSessionWindow")
	if err != nil {
		s.ready <- err
		return
	}

	wndProcOnce.Do(func() { wndProcThunk = windows.NewCallback(wtsWndProc) })
	wc := wndClassEx{
		WndProc:   wndProcThunk,
		Instance:  instance,
		ClassName: className,
	}
	wc.Size = uint32(unsafe.Sizeof(wc))
	if atom, _, callErr := procRegisterClassExW.Call(uintptr(unsafe.Pointer(&wc))); atom == 0 && !errors.Is(callErr, errClassExists) {
		s.ready <- fmt.Errorf("register window class: %w", callErr)
		return
	}

	hwnd, _, callErr := procCreateWindowExW.Call(
		0,
		uintptr(unsafe.Pointer(className)),
		uintptr(unsafe.Pointer(className)),
		0, 0, 0, 0, 0,
		hwndMessage, 0, uintptr(instance), 0,
	)
	if hwnd == 0 {
		s.ready <- fmt.Errorf("create notification window: %w", callErr)
		return
	}
	s.hwnd = hwnd
	wtsWindows.Store(hwnd, s)
	defer wtsWindows.Delete(hwnd)

	if ok, _, callErr := procWTSRegisterNotif.Call(hwnd, notifyForThisSession); ok == 0 {
		_, _, _ = procDestroyWindow.Call(hwnd)
		s.ready <- fmt.Errorf("register session notification: %w", callErr)
		return
	}
	s.ready <- nil

	var m winMsg
	for {
		r, _, _ := procGetMessageW.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0)
		if int32(r) <= 0 {
			return
		}
		_, _, _ = procTranslateMessage.Call(uintptr(unsafe.Pointer(&m)))
		_, _, _ = procDispatchMessageW.Call(uintptr(unsafe.Pointer(&m)))
	}
}

func (s *wtsSubscription) Close() error {
	s.once.Do(func() {
		if s.hwnd != 0 {
			_, _, _ = procPostMessageW.Call(s.hwnd, wmClose, 0, 0)
		}
		<-s.done
	})
	return nil
}

func wtsWndProc(hwnd, msg, wParam, lParam uintptr) uintptr {
	switch msg {
	case wmWTSSessionChange:
		if v, ok := wtsWindows.Load(hwnd); ok {
			sub := v.(*wtsSubscription)
			sub.handler(Event{
				Reason:    reasonFromWTS(wParam),
				SessionID: strconv.FormatUint(uint64(lParam), 10),
				At:        time.Now(),
			})
		}
		return 0
	case wmClose:
		_, _, _ = procWTSUnRegisterNotif.Call(hwnd)
		_, _, _ = procDestroyWindow.Call(hwnd)
		return 0
	case wmDestroy:
		_, _, _ = procPostQuitMessage.Call(0)
		return 0
	}
	r, _, _ := procDefWindowProcW.Call(hwnd, msg, wParam, lParam)
	return r
}
