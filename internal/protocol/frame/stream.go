package frame

// StructSizer 返回指定通道上结构体值的固定长度
type StructSizer func(channel uint8) (int, bool)

// maxStreamBuffer 串口流缓冲上限，超出后丢弃最旧数据
const maxStreamBuffer = 4 * MaxFrameSize

// StreamDecoder 在字节流（串口）上按 0xAA 重同步切分帧
// 帧本身不带总长度，按类型推断：定长类型直接取长度，字符串/字节读长度前缀，结构体查表
type StreamDecoder struct {
	buf        []byte
	structSize StructSizer
	dropped    int
}

func NewStreamDecoder(sizer StructSizer) *StreamDecoder {
	return &StreamDecoder{structSize: sizer}
}

// Dropped 重同步时丢弃的字节数
func (d *StreamDecoder) Dropped() int { return d.dropped }

// Feed 追加数据并返回其中所有完整且通过校验的帧
func (d *StreamDecoder) Feed(p []byte) []*Frame {
	d.buf = append(d.buf, p...)
	if over := len(d.buf) - maxStreamBuffer; over > 0 {
		d.buf = d.buf[over:]
		d.dropped += over
	}

	var out []*Frame
	for {
		if len(d.buf) == 0 {
			return out
		}
		if d.buf[0] != StartMarker {
			d.skip()
			continue
		}
		total, ok, need := d.frameLen()
		if need {
			return out
		}
		if !ok {
			d.skip()
			continue
		}
		if len(d.buf) < total {
			return out
		}
		fr, err := Decode(d.buf[:total])
		if err != nil {
			d.skip()
			continue
		}
		out = append(out, fr)
		d.buf = d.buf[total:]
	}
}

// frameLen 推断缓冲区首帧总长度；need 表示数据不足以判断
func (d *StreamDecoder) frameLen() (total int, ok bool, need bool) {
	if len(d.buf) < HeaderSize {
		return 0, false, true
	}
	var body int
	switch Type(d.buf[1]) {
	case TypeBool:
		body = 1
	case TypeInt32, TypeFloat:
		body = 4
	case TypeString, TypeBytes:
		if len(d.buf) < HeaderSize+1 {
			return 0, false, true
		}
		body = 1 + int(d.buf[HeaderSize])
	case TypeStruct:
		if d.structSize == nil {
			return 0, false, false
		}
		n, known := d.structSize(d.buf[2])
		if !known || n <= 0 || n > MaxValueSize {
			return 0, false, false
		}
		body = n
	default:
		return 0, false, false
	}
	return Overhead + body, true, false
}

func (d *StreamDecoder) skip() {
	d.buf = d.buf[1:]
	d.dropped++
}
