package progress

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"outreach/internal/core"
)

func TestNewProgress_Quiet(t *testing.T) {
	progress := NewProgress(true)

	if !progress.quiet {
		t.Error("quiet should be true")
	}
}

func TestProgress_QuietMode(t *testing.T) {
	progress := NewProgress(true)

	// Start and stop should not panic in quiet mode
	progress.Start()
	time.Sleep(10 * time.Millisecond)
	progress.Stop()
}

func TestProgress_DoubleStop(t *testing.T) {
	progress := NewProgress(false)
	progress.SetOutput(&core.MockWriter{})
	progress.Start()

	progress.Stop()
	progress.Stop()
}

func TestProgress_StopWithoutStart(t *testing.T) {
	progress := NewProgress(false)
	progress.SetOutput(&bytes.Buffer{})

	progress.Stop()
}

func TestProgress_ObserveSingleLaunch(t *testing.T) {
	progress := NewProgress(false)
	observe := progress.Observe("Mid-Market Nurture")

	if got := progress.Line(); got != "Launching campaign... 0%" {
		t.Errorf("expected 0%% before first tick, got %q", got)
	}

	observe(45)

	if got := progress.Line(); got != "Launching campaign... 45%" {
		t.Errorf("unexpected line %q", got)
	}
	if v, ok := progress.Value("Mid-Market Nurture"); !ok || v != 45 {
		t.Errorf("expected value 45, got %d (ok=%v)", v, ok)
	}
}

func TestProgress_ObserveSeveralLaunches(t *testing.T) {
	progress := NewProgress(false)
	b := progress.Observe("b")
	a := progress.Observe("a")
	a(100)
	b(20)

	if got := progress.Line(); got != "Launching a 100% | b 20%" {
		t.Errorf("unexpected line %q", got)
	}
}

func TestProgress_RedrawsWhileRunning(t *testing.T) {
	out := &core.MockWriter{}
	progress := NewProgress(false)
	progress.SetOutput(out)
	progress.SetRefresh(time.Millisecond)
	progress.Observe("x")(50)

	progress.Start()
	deadline := time.Now().Add(time.Second)
	for !strings.Contains(out.String(), "Launching campaign... 50%") && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	progress.Stop()

	if !strings.Contains(out.String(), "Launching campaign... 50%") {
		t.Errorf("expected progress line, got %q", out.String())
	}
	if !strings.HasSuffix(out.String(), "\r\033[K") {
		t.Error("expected Stop to clear the line")
	}
}

func TestProgress_Print(t *testing.T) {
	var buf bytes.Buffer
	progress := NewProgress(false)
	progress.SetOutput(&buf)

	progress.Print("Campaign paused")

	output := buf.String()
	if !strings.Contains(output, "\033[K") {
		t.Error("expected output to contain line clear escape sequence")
	}
	if !strings.Contains(output, "Campaign paused\n") {
		t.Errorf("expected message with newline, got: %q", output)
	}
}

func TestProgress_Print_QuietModeDoesNotPrint(t *testing.T) {
	var buf bytes.Buffer
	progress := NewProgress(true)
	progress.SetOutput(&buf)

	progress.Print("Campaign paused")
	progress.Notify(core.KindInfo, "Campaign paused")

	if buf.String() != "" {
		t.Errorf("expected no output in quiet mode, got: %q", buf.String())
	}
}

func TestProgress_Printf(t *testing.T) {
	var buf bytes.Buffer
	progress := NewProgress(false)
	progress.SetOutput(&buf)

	progress.Printf("Campaign %q (steps: %d)", "Mid-Market Nurture", 2)

	if !strings.Contains(buf.String(), "Campaign \"Mid-Market Nurture\" (steps: 2)\n") {
		t.Errorf("expected formatted message, got: %q", buf.String())
	}
}

func TestProgress_Notify(t *testing.T) {
	var buf bytes.Buffer
	progress := NewProgress(false)
	progress.SetOutput(&buf)

	progress.Notify(core.KindSuccess, `Campaign "A" launched!`)

	if !strings.Contains(buf.String(), "[success] Campaign \"A\" launched!\n") {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestProgress_SetOutput(t *testing.T) {
	var buf1, buf2 bytes.Buffer
	progress := NewProgress(false)

	progress.SetOutput(&buf1)
	progress.Print("message1")

	progress.SetOutput(&buf2)
	progress.Print("message2")

	if !strings.Contains(buf1.String(), "message1") {
		t.Error("expected message1 in buf1")
	}
	if !strings.Contains(buf2.String(), "message2") {
		t.Error("expected message2 in buf2")
	}
	if strings.Contains(buf1.String(), "message2") {
		t.Error("buf1 should not contain message2")
	}
}
